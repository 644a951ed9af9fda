// Package memory provides in-memory implementations of the transport and
// ledger ports. The transport keeps the remote file system in a map and can
// inject the failures the sender must survive: rejected hosts, rejected
// credentials, a failure after K copies (optionally leaving a partial temp
// file), and a size mismatch after upload.
package memory
