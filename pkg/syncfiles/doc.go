// Package syncfiles moves exported batch files from a client node to a central
// server over SSH/SFTP, exactly once per file.
//
// A [Client] exposes four actions. Export bundles pending records into one
// batch file. Send copies every pending batch, archives it and records it in
// the ledger, then sends new media files. Confirm issues one confirmation
// code over all sent files. Pending lists what is still outstanding.
//
// # Basic Usage
//
//	cfg := syncfiles.DefaultConfig()
//	cfg.RemoteHost = "central.example.org"
//	cfg.Username = "node-1"
//	cfg.KeyFile = "/etc/syncfiles/id_ed25519"
//	cfg.RemoteDir = "/srv/incoming"
//
//	logger := log.NewConsoleLogger(os.Stderr, "info") // pkg/log
//	c, err := syncfiles.New(ctx, cfg, syncfiles.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, err := c.Handle(ctx, syncfiles.ActionSendFiles)
//
// Every result carries the pending list as it stands after the action. A
// failed send may have committed a prefix of the files; the pending list is
// the authoritative record of what is left.
//
// # Dependency Injection
//
// The transport, ledger, exporter and logger can be replaced with
// [WithTransport], [WithLedger], [WithExporter] and [WithLogger]. Nothing is
// read from global state.
package syncfiles
