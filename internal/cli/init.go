// Package cli holds the startup steps shared by the tracker commands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tracker/internal/config"
	"tracker/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.LevelFromString(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the configuration, sets up logging for
// component and validates. It exits the process on failure.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}

	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext is canceled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// IgnoreCanceled maps context.Canceled to nil so a clean shutdown does not
// fail an errgroup.
func IgnoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
