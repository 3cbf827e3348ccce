// Package watcher reloads configuration at runtime when the config file
// changes on disk.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pshenley/hollow/internal/config"
	"github.com/pshenley/hollow/internal/event"
)

// Service watches the config file and re-applies it when it changes. The
// parent directory is watched rather than the file itself because editors
// typically replace the file on save.
type Service struct {
	configPath string
	apply      func(*config.Config)
	eventBus   *event.Bus
	logger     *slog.Logger
	debounce   time.Duration
	pollPeriod time.Duration
}

// NewService creates a config watcher. apply is called with each successfully
// reloaded config.
func NewService(configPath string, apply func(*config.Config), eventBus *event.Bus, logger *slog.Logger) *Service {
	return &Service{
		configPath: configPath,
		apply:      apply,
		eventBus:   eventBus,
		logger:     logger.With("component", "config-watcher"),
		debounce:   500 * time.Millisecond,
		pollPeriod: 30 * time.Second,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Start blocks until ctx is canceled. When fsnotify is unavailable it falls
// back to polling the file's modification time.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err == nil {
		err = w.Add(filepath.Dir(s.configPath))
	}
	if err != nil {
		s.logger.Warn("fsnotify unavailable, polling config file", "error", err)
		if w != nil {
			w.Close() //nolint:errcheck
		}
		s.poll(ctx)
		return
	}
	defer w.Close() //nolint:errcheck

	s.logger.Info("watching config file", "path", s.configPath)

	// Debounce timer coalesces rapid write events into a single reload.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	reloadPending := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("config watcher stopping")
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(s.configPath) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(s.debounce)
			reloadPending = true

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", "error", err)

		case <-debounceTimer.C:
			if reloadPending {
				reloadPending = false
				s.reload()
			}
		}
	}
}

// poll is the fsnotify fallback: reload whenever the file's mtime advances.
func (s *Service) poll(ctx context.Context) {
	ticker := time.NewTicker(s.pollPeriod)
	defer ticker.Stop()

	var lastMod time.Time
	if info, err := os.Stat(s.configPath); err == nil {
		lastMod = info.ModTime()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(s.configPath)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				s.reload()
			}
		}
	}
}

func (s *Service) reload() {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}

	s.apply(cfg)
	s.logger.Info("config reloaded", "path", s.configPath)

	if s.eventBus != nil {
		s.eventBus.Publish(event.Event{
			Type: event.ConfigReloaded,
			Data: map[string]any{"path": s.configPath},
		})
	}
}
