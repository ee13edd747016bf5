package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/tourneyhq/auction-backend/internal/config"
	"github.com/tourneyhq/auction-backend/internal/engine"
	"github.com/tourneyhq/auction-backend/internal/httpapi"
	"github.com/tourneyhq/auction-backend/internal/hub"
	"github.com/tourneyhq/auction-backend/internal/session"
	"github.com/tourneyhq/auction-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st session.Store
	if cfg.DatabaseURL != "" {
		gs, err := store.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("store open failed", zap.Error(err))
		}
		// Crash repair: no lot may remain InAuction with no way to
		// finalize. Orphans are force-finalized before serving.
		touched, err := gs.ForceFinalizeOrphans(ctx, engine.OutcomeUnsold)
		if err != nil {
			logger.Fatal("recovery failed", zap.Error(err))
		}
		if len(touched) > 0 {
			logger.Info("recovered orphaned lots", zap.Strings("tournaments", touched))
		}
		st = gs
	} else {
		logger.Warn("DATABASE_URL not set, running without durable store")
	}

	h := hub.New(ctx, st, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cfg.LotTimerSeconds),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.Inbox() <- hub.ShutdownHub{}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	var zcfg zap.Config
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
