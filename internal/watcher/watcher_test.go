package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pshenley/hollow/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	applied := make(chan *config.Config, 4)
	svc := NewService(path, func(cfg *config.Config) { applied <- cfg }, nil, testLogger())
	svc.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-applied:
		if cfg.Server.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Server.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not applied")
	}
}

func TestWatcher_KeepsPreviousConfigOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	applied := make(chan *config.Config, 4)
	svc := NewService(path, func(cfg *config.Config) { applied <- cfg }, nil, testLogger())
	svc.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	// Out-of-range port fails validation; apply must not be called.
	if err := os.WriteFile(path, []byte("server:\n  port: 99999\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-applied:
		t.Errorf("invalid config was applied: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	applied := make(chan *config.Config, 4)
	svc := NewService(path, func(cfg *config.Config) { applied <- cfg }, nil, testLogger())
	svc.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("writing other file: %v", err)
	}

	select {
	case <-applied:
		t.Error("unrelated file change triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
