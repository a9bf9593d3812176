package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/aquapet/backend/internal/infrastructure/logger"
	"github.com/aquapet/backend/internal/infrastructure/scheduler"
	"github.com/aquapet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if core := providers.LogCore(cfg.Telemetry.ServiceName); core != nil {
		log = log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}

	profiler, err := telemetry.StartProfiler(cfg.Profiling, cfg.Telemetry.ServiceName, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler shutdown failed", zap.Error(err))
		}
	}()
	if profiler.Enabled() && cfg.Profiling.SpanProfiles {
		providers.EnableSpanProfiles()
	}

	log.Info("Starting AquaPet backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	g, gctx := errgroup.WithContext(ctx)

	app, err := newApp(gctx, cfg, log, providers)
	if err != nil {
		return err
	}
	defer app.close()

	engine := app.engine(gctx, g)
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Sweeper.Enabled {
		sweeper := scheduler.NewOrderSweeper(scheduler.OrderSweeperConfig{
			Interval: cfg.Sweeper.Interval,
			LockTTL:  cfg.Sweeper.LockTTL,
		}, app.expirer, app.locker, log.Named("sweeper"))
		g.Go(func() (err error) {
			telemetry.WithProfileLabels(gctx, func(ctx context.Context) {
				err = sweeper.Run(ctx)
			}, "worker", "order_sweeper")
			return err
		})
	}

	return g.Wait()
}
