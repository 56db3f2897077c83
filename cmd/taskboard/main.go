package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/export"
	"taskboard/internal/logging"
	"taskboard/internal/server"
	"taskboard/internal/service"
	"taskboard/internal/storage"
	"taskboard/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("TASKBOARD_CONFIG", ""), "Path to YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address")
	driverFlag := flag.String("db-driver", "", "Database driver (sqlite3 or postgres)")
	dsnFlag := flag.String("db", "", "Database DSN or sqlite file path")
	exportFlag := flag.String("export-dir", "", "Directory for board exports")
	levelFlag := flag.String("log-level", "", "Log level")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logrus.WithError(err).Fatal("unable to load configuration")
	}
	override(&cfg.Addr, *addrFlag)
	override(&cfg.Database.Driver, *driverFlag)
	override(&cfg.Database.DSN, *dsnFlag)
	override(&cfg.ExportDir, *exportFlag)
	override(&cfg.Log.Level, *levelFlag)
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("unable to configure logging")
	}
	logger.WithFields(logrus.Fields{"driver": cfg.Database.Driver, "export_dir": cfg.ExportDir}).Info("Taskboard starting")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, AttachStacktrace: true}); err != nil {
			logger.WithError(err).Warn("sentry disabled")
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		reportFatal(sentry.CurrentHub(), logger, "unable to open database", err)
		os.Exit(1)
	}
	defer store.Close()

	var describeCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rc, err := cache.Dial(dialCtx, cfg.Redis.Addr, cfg.Redis.TTL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; describe cache disabled")
		} else {
			defer rc.Close()
			describeCache = rc
		}
	}

	exporter := export.New(cfg.ExportDir, logger.WithField("component", "export"))
	svc := service.New(store.Gateway, describeCache, exporter, logger)
	srv := server.New(svc, store, logger.WithField("component", "http"), exporter.Dir())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shutdown server")
	}

	logger.Info("server stopped")
}

const sentryFlushTimeout = 2 * time.Second

// reportFatal logs a start-up failure and delivers it to Sentry before the
// caller exits, since os.Exit skips deferred flushes.
func reportFatal(hub *sentry.Hub, logger logrus.FieldLogger, msg string, err error) {
	logger.WithError(err).Error(msg)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", "startup")
		hub.CaptureException(err)
	})
	hub.Flush(sentryFlushTimeout)
}

// override replaces *dst when a flag was given.
func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
