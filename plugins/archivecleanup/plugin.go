// Package archivecleanup keeps the archive directory of sent batch files
// within a size budget. When enabled, it periodically removes the oldest
// archived files once the directory grows past a high watermark.
package archivecleanup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bft-labs/syncfiles/internal/ports"
	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

// Plugin implements archive cleanup.
type Plugin struct {
	mu sync.RWMutex

	checkInterval time.Duration
	highWatermark int64
	lowWatermark  int64

	archiveDir string
	logger     syncfiles.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Config holds configuration options for the archive cleanup plugin.
type Config struct {
	// CheckInterval is how often to check the archive directory size.
	// Default: 6 hours
	CheckInterval time.Duration

	// HighWatermark is the size in bytes above which cleanup begins.
	// Default: 1 GiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after cleanup.
	// Default: 768 MiB
	LowWatermark int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval: 6 * time.Hour,
		HighWatermark: 1 << 30,
		LowWatermark:  3 << 28,
	}
}

// New creates a new archive cleanup plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = def.HighWatermark
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark > cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark * 3 / 4
	}

	return &Plugin{
		checkInterval: cfg.CheckInterval,
		highWatermark: cfg.HighWatermark,
		lowWatermark:  cfg.LowWatermark,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "archivecleanup"
}

// Initialize starts the cleanup loop.
func (p *Plugin) Initialize(ctx context.Context, cfg syncfiles.PluginConfig) error {
	p.mu.Lock()
	p.archiveDir = cfg.ArchiveDir
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.archiveDir == "" {
		p.logger.Warn("archive cleanup disabled: no archive directory configured")
		return nil
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.cleanupLoop(cleanupCtx)

	return nil
}

// Shutdown stops the cleanup loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	p.cleanupOnce(ctx)

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanupOnce(ctx)
		}
	}
}

// archivedFile is one regular file in the archive directory.
type archivedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// cleanupOnce removes the oldest archived files until the directory is at or
// below the low watermark. It does nothing while under the high watermark.
func (p *Plugin) cleanupOnce(ctx context.Context) {
	p.mu.RLock()
	dir := p.archiveDir
	p.mu.RUnlock()

	files, total, err := listArchive(dir)
	if err != nil {
		p.logger.Error("archive cleanup: list failed", ports.String("dir", dir), ports.Err(err))
		return
	}
	if total <= p.highWatermark {
		return
	}

	var freed int64
	removed := 0
	for _, f := range files {
		if ctx.Err() != nil || total <= p.lowWatermark {
			break
		}
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			p.logger.Error("archive cleanup: remove failed", ports.String("file", f.path), ports.Err(err))
			continue
		}
		total -= f.size
		freed += f.size
		removed++
	}

	if removed > 0 {
		p.logger.Info("archive cleanup completed",
			ports.Int("files", removed),
			ports.String("freed", humanize.IBytes(uint64(freed))),
			ports.String("size", humanize.IBytes(uint64(total))),
		)
	}
}

// listArchive returns regular files oldest first, ties broken by name.
func listArchive(dir string) ([]archivedFile, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	var (
		files []archivedFile
		total int64
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, 0, err
		}
		files = append(files, archivedFile{
			path:    filepath.Join(dir, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].path < files[j].path
	})
	return files, total, nil
}

// Ensure Plugin implements syncfiles.Plugin.
var _ syncfiles.Plugin = (*Plugin)(nil)
