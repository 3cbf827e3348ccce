package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pshenley/hollow/internal/api"
	"github.com/pshenley/hollow/internal/config"
	"github.com/pshenley/hollow/internal/database"
	"github.com/pshenley/hollow/internal/event"
	"github.com/pshenley/hollow/internal/history"
	"github.com/pshenley/hollow/internal/logging"
	"github.com/pshenley/hollow/internal/scanner"
	"github.com/pshenley/hollow/internal/version"
	"github.com/pshenley/hollow/internal/watcher"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "scan":
			if err := runScanCommand(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configPath() string {
	if p := os.Getenv("HW_CONFIG_PATH"); p != "" {
		return p
	}
	return "/data/config.yaml"
}

func run() error {
	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging via the logging Manager
	logManager, logger := logging.NewManager(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Initialize services
	historyService := history.NewService(db)
	scannerService := scanner.NewService(historyService, logger,
		cfg.Scan.RootPath, cfg.Scan.Options(), cfg.History.RetentionCount)

	// Initialize event bus
	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()
	scannerService.SetEventBus(eventBus)

	// Audit log for scan lifecycle and config reloads
	for _, eventType := range []event.Type{
		event.ScanStarted, event.ScanCompleted, event.ScanFailed, event.ConfigReloaded,
	} {
		t := eventType
		eventBus.Subscribe(t, func(e event.Event) {
			logger.Info("event", "type", string(t), "data", e.Data)
		})
	}

	logger.Info("starting hollow",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("scan_root", cfg.Scan.RootPath),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Watch the config file; re-apply logging and scan defaults on change.
	applyConfig := func(c *config.Config) {
		logManager.Reconfigure(logging.Config{
			Level:    c.Logging.Level,
			Format:   c.Logging.Format,
			FilePath: c.Logging.FilePath,
		})
		scannerService.SetDefaults(c.Scan.RootPath, c.Scan.Options(), c.History.RetentionCount)
	}
	watcherService := watcher.NewService(cfgPath, applyConfig, eventBus, logger)
	go watcherService.Start(ctx)

	// Set up HTTP router
	router := api.NewRouter(api.RouterDeps{
		ScannerService: scannerService,
		HistoryService: historyService,
		Logger:         logger,
		BasePath:       cfg.Server.BasePath,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
