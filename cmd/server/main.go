package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/powertimer"
)

type openReposFunc func(context.Context, powertimer.Config, *log.Logger) (repos, error)

func main() {
	configPath := flag.String("config", "powertimer.toml", "path to TOML config file")
	isProd := flag.Bool("p", false, "is production environment")
	flag.Parse()

	// config
	cfg, err := powertimer.LoadConfig(*configPath, *isProd)
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	// logger
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.LogLevel,
		ReportTimestamp: true,
		ReportCaller:    cfg.LogLevel <= log.DebugLevel,
	})
	log.SetDefault(logger)

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	if err := run(context.Background(), cfg, logger, openRepos, sc); err != nil {
		log.Fatal("powertimer failed", "err", err)
	}
}

// run serves until a signal arrives on stop or the server fails. The store is
// closed on every return path.
func run(ctx context.Context, cfg powertimer.Config, logger *log.Logger, open openReposFunc, stop <-chan os.Signal) error {
	topCtx, topCtxC := context.WithCancel(ctx)
	defer topCtxC()
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 10*time.Second)
	defer initTimeoutC()

	// db
	r, err := open(initTimeout, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := r.close(context.Background()); err != nil {
			logger.Error("failed to close store", "err", err)
		}
	}()

	timerManager := NewTimerManager(r.timers, r.sessions, r.tx, logger)
	templateManager := NewTemplateManager(r.templates, timerManager, r.tx, logger)
	statsProvider := NewStatsProvider(r.sessions, logger)

	if cfg.SeedTemplates {
		if _, err := templateManager.SeedDefaults(initTimeout); err != nil {
			return fmt.Errorf("failed to seed templates: %w", err)
		}
	}

	// init done
	initTimeoutC()

	srv := NewServer(ServerConfig{
		Addr:        cfg.Addr,
		CORSOrigins: cfg.CORSOrigins,
	}, timerManager, templateManager, statsProvider, logger)

	errC := make(chan error, 1)
	go func() {
		errC <- srv.ListenAndServe()
	}()

	// graceful shutdown
	var serveErr error
	select {
	case <-stop:
		logger.Info("terminating powertimer")
	case serveErr = <-errC:
		if serveErr != nil {
			logger.Error("server failed", "err", serveErr)
		}
	}

	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownTimeoutC()
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		logger.Error("failed to shut down gracefully", "err", err)
	}
	return serveErr
}
