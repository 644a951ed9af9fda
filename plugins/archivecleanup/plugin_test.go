package archivecleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/syncfiles/pkg/log"
	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

func writeArchived(t *testing.T, dir, name string, size int, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mt := time.Now().Add(-age)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func remaining(t *testing.T, dir string) map[string]bool {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	out := map[string]bool{}
	for _, e := range entries {
		out[e.Name()] = true
	}
	return out
}

func newInitialized(t *testing.T, dir string, cfg Config) *Plugin {
	t.Helper()
	p := New(cfg)
	p.archiveDir = dir
	p.logger = log.NewNoopLogger()
	return p
}

func TestCleanupOnce_RemovesOldestUntilLowWatermark(t *testing.T) {
	dir := t.TempDir()
	writeArchived(t, dir, "a.json", 100, 4*time.Hour)
	writeArchived(t, dir, "b.json", 100, 3*time.Hour)
	writeArchived(t, dir, "c.json", 100, 2*time.Hour)
	writeArchived(t, dir, "d.json", 100, time.Hour)

	p := newInitialized(t, dir, Config{HighWatermark: 350, LowWatermark: 200})
	p.cleanupOnce(context.Background())

	got := remaining(t, dir)
	if got["a.json"] || got["b.json"] {
		t.Errorf("oldest files should be removed, remaining %v", got)
	}
	if !got["c.json"] || !got["d.json"] {
		t.Errorf("newest files should be kept, remaining %v", got)
	}
}

func TestCleanupOnce_UnderHighWatermarkKeepsAll(t *testing.T) {
	dir := t.TempDir()
	writeArchived(t, dir, "a.json", 100, 2*time.Hour)
	writeArchived(t, dir, "b.json", 100, time.Hour)

	p := newInitialized(t, dir, Config{HighWatermark: 500, LowWatermark: 100})
	p.cleanupOnce(context.Background())

	if got := remaining(t, dir); len(got) != 2 {
		t.Errorf("expected both files kept, remaining %v", got)
	}
}

func TestCleanupOnce_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeArchived(t, dir, "a.json", 300, time.Hour)

	p := newInitialized(t, dir, Config{HighWatermark: 100, LowWatermark: 50})
	p.cleanupOnce(context.Background())

	got := remaining(t, dir)
	if got["a.json"] {
		t.Error("a.json should be removed")
	}
	if !got["nested"] {
		t.Error("directories must not be removed")
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{HighWatermark: 1000, LowWatermark: 2000})
	if p.checkInterval != 6*time.Hour {
		t.Errorf("checkInterval = %v", p.checkInterval)
	}
	if p.lowWatermark != 750 {
		t.Errorf("lowWatermark = %d, want 750", p.lowWatermark)
	}
}

func TestPlugin_InitializeAndShutdown(t *testing.T) {
	dir := t.TempDir()
	writeArchived(t, dir, "a.json", 200, time.Hour)

	p := New(Config{CheckInterval: time.Hour, HighWatermark: 100, LowWatermark: 50})
	if err := p.Initialize(context.Background(), syncfiles.PluginConfig{
		ArchiveDir: dir,
		Logger:     log.NewNoopLogger(),
	}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for remaining(t, dir)["a.json"] && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if remaining(t, dir)["a.json"] {
		t.Error("initial cleanup should run on start")
	}
}

func TestPlugin_DisabledWithoutDir(t *testing.T) {
	p := New(DefaultConfig())
	if err := p.Initialize(context.Background(), syncfiles.PluginConfig{Logger: log.NewNoopLogger()}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
