// Command controller runs the access control service: the capture loop, the
// decision engine, and the operational HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mindaccess/opendoor-backend/internal/api/rest"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/actuator"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/database"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/embedding"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/repository"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/telemetry"
	"github.com/mindaccess/opendoor-backend/internal/metrics"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
	"github.com/mindaccess/opendoor-backend/internal/service/capture"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "controller failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting access controller",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	db := database.OpenSQL(pool)

	relay, err := actuator.NewRedisRelay(&cfg.Relay, logger)
	if err != nil {
		return fmt.Errorf("connecting to relay: %w", err)
	}
	defer relay.Close()

	policy, err := buildPolicy(&cfg.Access)
	if err != nil {
		return fmt.Errorf("building access policy: %w", err)
	}

	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promReg)

	engine := accessdecision.NewService(
		repository.NewUserRepository(db),
		repository.NewObservedRepository(db),
		repository.NewAccessLogRepository(db),
		relay,
		reg,
		policy,
		accessdecision.RealClock{},
		logger.Named("engine"),
	)

	extractor := embedding.NewClient(&cfg.Embedding, logger.Named("embedding"))

	zoneID, err := uuid.Parse(cfg.Access.ZoneID)
	if err != nil {
		return fmt.Errorf("parsing zone id: %w", err)
	}

	server := rest.NewServer(cfg, engine, extractor, pool, relay, promReg, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Capture.Enabled {
		source, err := frameSource(&cfg.Capture)
		if err != nil {
			return err
		}
		loop := capture.NewLoop(
			source,
			extractor,
			engine,
			zoneID,
			cfg.Capture.Interval,
			cfg.Capture.Cooldown,
			reg,
			logger.Named("capture"),
		)
		g.Go(func() error {
			if err := loop.Run(gctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	} else {
		logger.Info("capture loop disabled; serving API only")
	}

	err = g.Wait()
	logger.Info("access controller stopped")
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func buildPolicy(cfg *config.AccessConfig) (accessdecision.Policy, error) {
	newStatus, err := uuid.Parse(cfg.NewObservedStatusID)
	if err != nil {
		return accessdecision.Policy{}, fmt.Errorf("parsing new observed status id: %w", err)
	}
	deniedStatus, err := uuid.Parse(cfg.AccessDeniedStatusID)
	if err != nil {
		return accessdecision.Policy{}, fmt.Errorf("parsing access denied status id: %w", err)
	}

	policy := accessdecision.Policy{
		UserMatchThreshold:     cfg.UserMatchThreshold,
		ObservedMatchThreshold: cfg.ObservedMatchThreshold,
		ObservedValidity:       cfg.ObservedValidity,
		NewObservedStatusID:    newStatus,
		AccessDeniedStatusID:   deniedStatus,
		DeniedStreakThreshold:  cfg.DeniedStreakThreshold,
	}

	if cfg.CameraID != "" {
		cameraID, err := uuid.Parse(cfg.CameraID)
		if err != nil {
			return accessdecision.Policy{}, fmt.Errorf("parsing camera id: %w", err)
		}
		policy.CameraID = &cameraID
	}

	return policy, nil
}

func frameSource(cfg *config.CaptureConfig) (capture.FrameSource, error) {
	if !cfg.TestMode {
		return nil, fmt.Errorf("only test-mode capture is supported; set capture.test_mode and capture.test_image_path")
	}
	if cfg.TestImagePath == "" {
		return nil, fmt.Errorf("capture.test_image_path is required in test mode")
	}
	return capture.NewFileFrameSource(cfg.TestImagePath), nil
}
