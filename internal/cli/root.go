package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/agentx-labs/agentdir/internal/branding"
	"github.com/agentx-labs/agentdir/internal/config"
	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/logging"
	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Loaded by the root PersistentPreRunE for every command.
var (
	settings *config.Settings
	logger   = zap.NewNop()
)

// persistentFlags maps root flags to the config keys they override.
var persistentFlags = map[string]string{
	"store-driver": config.KeyStoreDriver,
	"store-path":   config.KeyStorePath,
	"registry":     config.KeyRegistryPath,
	"log-level":    config.KeyLogLevel,
	"log-format":   config.KeyLogFormat,
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps a directory of agent configurations (LLM backend, system prompt,
assigned functions, sub-agents and MCP servers) and a catalog of callable
functions aggregated from the backend services in services.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		for name, key := range persistentFlags {
			if err := viper.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
		config.Load()

		s, err := config.Current()
		if err != nil {
			return err
		}
		l, err := logging.New(s.Log.Level, s.Log.Format)
		if err != nil {
			return err
		}
		settings, logger = s, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("store-driver", "", "Agent store driver (memory, file, sqlite)")
	pf.String("store-path", "", "Agent store file or database path")
	pf.String("registry", "", "Path to the services.yaml registry")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (console, json)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// openStore opens the agent store named by the loaded settings.
func openStore(ctx context.Context) (directory.Store, error) {
	store, err := directory.Open(ctx, directory.Options{
		Driver: settings.Store.Driver,
		Path:   settings.Store.Path,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening agent store: %w", err)
	}
	return store, nil
}

// loadRegistry loads services.yaml. A missing file yields an empty registry
// so agent commands work before any service is configured.
func loadRegistry() (*registry.Registry, error) {
	path := settings.Registry.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("service registry not found, using an empty registry", zap.String("path", path))
		return registry.New()
	}
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("service registry loaded", zap.String("path", path), zap.Int("services", reg.Len()))
	return reg, nil
}
