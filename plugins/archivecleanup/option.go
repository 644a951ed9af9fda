package archivecleanup

import "github.com/bft-labs/syncfiles/pkg/syncfiles"

// WithArchiveCleanup returns a syncfiles Option that prunes the archive
// directory while Watch runs.
//
// Usage:
//
//	c, err := syncfiles.New(ctx, cfg,
//	    archivecleanup.WithArchiveCleanup(archivecleanup.Config{
//	        CheckInterval: time.Hour,
//	        HighWatermark: 2 << 30, // 2 GiB
//	        LowWatermark:  1 << 30, // 1 GiB
//	    }),
//	)
func WithArchiveCleanup(cfg Config) syncfiles.Option {
	return syncfiles.WithPlugin(New(cfg))
}

// WithDefaultArchiveCleanup enables archive cleanup with default settings
// (check every 6h, high watermark 1GiB, low watermark 768MiB).
func WithDefaultArchiveCleanup() syncfiles.Option {
	return WithArchiveCleanup(DefaultConfig())
}
