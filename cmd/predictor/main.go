package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/api"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/api/handler"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/artifact"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/config"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/grpchealth"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/health"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/predict"
)

func main() {
	configFile := flag.String("config", "", "path to predictor.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("predictor exited with error", zap.Error(err))
	}
}

func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	lvl, err := lc.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.File != "" {
		logger.Info("config loaded", zap.String("file", cfg.File))
	} else {
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Artifacts ────────────────────────────────────────────────────────────
	// Loading finishes before any listener is bound.
	bundle, err := artifact.Load(cfg.Model.Path, cfg.Model.EncoderPath, logger)
	if err != nil {
		return fmt.Errorf("load model artifacts: %w", err)
	}
	svc := predict.NewService(bundle.Codec, bundle.Classifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── HTTP Router ──────────────────────────────────────────────────────────
	router := api.NewRouter(ctx, api.Options{
		Bundle:       bundle,
		Service:      svc,
		Logger:       logger,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimitRPS: cfg.Server.RateLimitRPS,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── gRPC health (optional) ───────────────────────────────────────────────
	var (
		grpcSrv *grpchealth.Server
		grpcLis net.Listener
	)
	if port := cfg.Server.GRPCPort; port > 0 {
		grpcLis, err = net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("gRPC listen on :%d: %w", port, err)
		}
		grpcSrv = grpchealth.New(logger)
		grpcSrv.MarkServing()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("predictor HTTP listening", zap.Int("port", cfg.Server.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP listen: %w", err)
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			logger.Info("predictor gRPC health listening", zap.Int("port", cfg.Server.GRPCPort))
			if err := grpcSrv.Serve(grpcLis); err != nil {
				return fmt.Errorf("gRPC serve: %w", err)
			}
			return nil
		})
	}

	// ── Artifact drift check ─────────────────────────────────────────────────
	if every := cfg.Model.CheckInterval; every > 0 {
		checker := health.New([]health.Artifact{
			{Name: "model", Path: bundle.ModelPath, Fingerprint: bundle.ModelFingerprint},
			{Name: "encoders", Path: bundle.EncoderPath, Fingerprint: bundle.EncoderFingerprint},
		}, artifact.FingerprintFile, health.Config{CheckInterval: every}, logger)
		checker.SetMetricsRecord(handler.RecordArtifactDrift)
		g.Go(func() error {
			checker.Start(gctx)
			return nil
		})
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down predictor...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("predictor stopped")
	return nil
}
