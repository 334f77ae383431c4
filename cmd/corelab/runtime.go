package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"corelab/internal/ai"
	"corelab/internal/apps"
	"corelab/internal/apps/memory"
	"corelab/internal/commands"
	"corelab/internal/config"
	"corelab/internal/events"
	"corelab/internal/logger"
	"corelab/internal/registry"
	"corelab/internal/store"
)

// runtime is the fully wired core for one CLI invocation.
type runtime struct {
	cfg      *config.Config
	store    *store.Store
	bus      *events.Bus
	registry *registry.Registry
	core     *commands.Core
	commands *commands.Registry
	apps     []apps.App
	out      *printer
}

// setup loads configuration and builds every component. Any failure here
// is fatal for the invocation.
func setup() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	provider, err := ai.New(cfg.AISettings())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		store:    st,
		bus:      events.NewBus(),
		registry: registry.NewRegistry(),
	}
	rt.core = commands.New(commands.Deps{
		Store:     st,
		Bus:       rt.bus,
		Registry:  rt.registry,
		Provider:  provider,
		AITimeout: cfg.AITimeout,
	})
	rt.commands = commands.NewRegistry()
	if err := rt.core.RegisterAll(rt.commands); err != nil {
		_ = st.Close()
		return nil, err
	}

	rt.apps = []apps.App{memory.New(st, provider, cfg.AITimeout)}
	if err := apps.StartAll(rt.registry, rt.bus, rt.apps...); err != nil {
		_ = st.Close()
		return nil, err
	}

	logger.Debug("Core initialized", "provider", provider.Name(), "db", cfg.DBPath)
	return rt, nil
}

// loadConfig resolves and validates configuration, then configures the
// logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), config.Options{ConfigFile: configFile})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile, false); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	return cfg, nil
}

func (rt *runtime) close() {
	apps.StopAll(rt.registry, rt.bus, rt.apps...)
	if err := rt.store.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
}

// withRuntime wraps a command body with setup and teardown.
func withRuntime(run func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, err := newPrinter(outputFmt)
		if err != nil {
			return err
		}
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()
		rt.out = out
		return run(cmd.Context(), rt, cmd, args)
	}
}
