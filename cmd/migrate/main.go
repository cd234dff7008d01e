// Command migrate applies the database schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/mindaccess/opendoor-backend/internal/infrastructure/config"
	"github.com/mindaccess/opendoor-backend/internal/infrastructure/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		action     = flag.String("action", "up", "migration action: up, down, version")
		steps      = flag.Int("steps", 0, "number of migrations to run (0 = all)")
		sourceDir  = flag.String("source", "migrations", "migrations directory")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	m, err := migrate.New("file://"+*sourceDir, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to initialize migrator", zap.Error(err))
	}
	defer m.Close()

	switch *action {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logger.Fatal("failed to read version", zap.Error(verr))
		}
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		logger.Fatal("unknown action", zap.String("action", *action))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("migration failed", zap.String("action", *action), zap.Error(err))
	}
	logger.Info("migration complete", zap.String("action", *action))
}
