// Package watch runs a send cycle whenever new files land in the outgoing
// directory, and periodically as a retry net.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/syncfiles/internal/app"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// Trigger runs one send cycle.
type Trigger func(ctx context.Context) error

// Config holds configuration options for the watcher.
type Config struct {
	// Dir is the directory to watch.
	Dir string

	// DebounceDelay is the quiet period after the last file event before sending.
	// Default: 500 milliseconds
	DebounceDelay time.Duration

	// PollInterval runs a send cycle even without file events. Zero disables polling.
	PollInterval time.Duration

	// BackoffInitial and BackoffMax bound the retry delay after a failed cycle.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Watcher turns file events into debounced send cycles.
type Watcher struct {
	cfg     Config
	trigger Trigger
	logger  ports.Logger
	kick    chan struct{}

	mu       sync.Mutex
	debounce *time.Timer
	retry    *time.Timer
}

// New creates a watcher. Zero durations fall back to defaults.
func New(cfg Config, trigger Trigger, logger ports.Logger) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = app.DefaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = app.DefaultBackoffMax
	}
	return &Watcher{
		cfg:     cfg,
		trigger: trigger,
		logger:  logger,
		kick:    make(chan struct{}, 1),
	}
}

// Run blocks until ctx is done. It sends once at start to drain leftovers.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	defer w.stopTimers()

	var tick <-chan time.Time
	if w.cfg.PollInterval > 0 {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.logger.Info("watching outgoing directory",
		ports.String("dir", w.cfg.Dir),
		ports.Duration("poll_interval", w.cfg.PollInterval),
	)

	backoff := app.NewBackoff(w.cfg.BackoffInitial, w.cfg.BackoffMax)
	// polls wait out a pending retry so the backoff can grow past PollInterval
	var retryAt time.Time
	w.signal()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.debounceSignal()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", ports.Err(err))

		case now := <-tick:
			if now.Before(retryAt) {
				continue
			}
			w.signal()

		case <-w.kick:
			if err := w.trigger(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				delay := backoff.Next()
				retryAt = time.Now().Add(delay)
				w.logger.Warn("send cycle failed, retrying",
					ports.Err(err),
					ports.Duration("delay", delay),
				)
				w.scheduleRetry(delay)
				continue
			}
			backoff.Reset()
			retryAt = time.Time{}
		}
	}
}

// relevant ignores temp names and events that do not add content.
func relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".tmp") || strings.HasPrefix(name, ".") {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write) != 0
}

func (w *Watcher) signal() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Watcher) debounceSignal() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.cfg.DebounceDelay, w.signal)
}

func (w *Watcher) scheduleRetry(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.retry != nil {
		w.retry.Stop()
	}
	w.retry = time.AfterFunc(delay, w.signal)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	if w.retry != nil {
		w.retry.Stop()
	}
}
