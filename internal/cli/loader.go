package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/campus-outreach/internal/app"
	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// loadConfig reads the configuration file and the environment. Every
// failure here is a configuration error.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DEBUG)
	}

	path := opts.ConfigPath
	if path == DefaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return nil, WrapExitError(ExitConfigError, "failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitConfigError, "invalid configuration", err)
	}
	return cfg, nil
}

// openApp loads the configuration and connects its backends.
func openApp(ctx context.Context, opts *RootOptions) (*app.App, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, opts.App)
	if err != nil {
		return nil, nil, classify("failed to initialize", err)
	}
	return a, cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logger.Warn("closing backends", "error", err)
	}
}
