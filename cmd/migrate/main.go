package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/config"
	"github.com/ayush/library-api/internal/logging"
	"github.com/ayush/library-api/internal/store"
)

var errUsage = errors.New("usage")

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		} else {
			logger.WithError(err).Error("migrate failed")
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if cfg.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN environment variable is required")
	}

	m, err := store.NewMigrator(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{log: logger}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("up: %w", err)
		}
		logger.Info("migrations: up completed")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("down: %w", err)
		}
		logger.WithField("steps", steps).Info("migrations: down completed")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("migrations: no migration applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migrations: current version")

	default:
		return errUsage
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate <up|down [n]|version>")
	fmt.Fprintln(os.Stderr, "environment: POSTGRES_DSN")
}

// migrateLogger adapts logrus to migrate.Logger.
type migrateLogger struct {
	log *logrus.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l *migrateLogger) Verbose() bool { return l.log.IsLevelEnabled(logrus.DebugLevel) }
