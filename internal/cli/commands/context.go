// Package commands implements the strata subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strata-build/strata/internal/config"
	"github.com/strata-build/strata/internal/model"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded configuration in ctx for the commands to
// pick up.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// configFromCmd retrieves the configuration placed in the command context
// by the root command.
func configFromCmd(cmd *cobra.Command) (*config.Config, error) {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("no configuration loaded")
}

func loggerFromCmd(cmd *cobra.Command) *slog.Logger {
	if logger, ok := cmd.Context().Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// loadProject opens the build graph for the configured profile and
// variant. The returned cleanup releases the graph lock.
func loadProject(cmd *cobra.Command) (*model.TopLevelProject, func(), error) {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := loggerFromCmd(cmd)

	buildConfig := cfg.BuildConfiguration()
	id := model.DeriveID(buildConfig)
	dir := model.DeriveBuildDirectory(cfg.BuildRoot, id)
	path := filepath.Join(dir, id+model.BuildGraphFileSuffix)

	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf(
			"no build graph for configuration %q at %s; resolve the project first", id, path)
	}

	project, err := model.LoadBuildGraph(path, buildConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := project.UnlockBuildGraph(); err != nil {
			logger.Warn("failed to unlock build graph", "path", path, "error", err)
		}
	}
	return project, cleanup, nil
}

// findProduct looks a product up by name across the project tree.
func findProduct(project *model.TopLevelProject, name string) (*model.ResolvedProduct, error) {
	var names []string
	for _, product := range project.AllProducts() {
		if product.Name == name {
			return product, nil
		}
		names = append(names, product.Name)
	}
	return nil, fmt.Errorf("no product named %q in project %q (have: %s)",
		name, project.Name, strings.Join(names, ", "))
}

// processEnvironment parses os.Environ style entries into a map.
func processEnvironment() map[string]string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	return env
}
