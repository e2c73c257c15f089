package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/wiz-platform/internal/host"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/config"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/database"
	"github.com/nerrad567/wiz-platform/internal/infrastructure/logging"
	"github.com/nerrad567/wiz-platform/migrations"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "wizplatform",
		Short:         "WiZ lighting platform",
		Long:          "Keeps one accessory per discovered WiZ device in sync with the accessory host.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", configPath(), "path to the YAML configuration file")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newAccessoriesCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

// configPath returns WIZPLATFORM_CONFIG if set, otherwise the default.
func configPath() string {
	if path := os.Getenv("WIZPLATFORM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// store is the configuration, logger and migrated database shared by every
// command.
type store struct {
	cfg *config.Config
	log *logging.Logger
	db  *database.DB
}

// openStore loads configuration and opens and migrates the database. Logs go
// to logOut, or to the configured output when logOut is nil. The caller must
// Close the result.
func openStore(ctx context.Context, opts *rootOptions, logOut io.Writer) (*store, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	if logOut != nil {
		log = logging.NewWithWriter(cfg.Logging, version, logOut)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Debug("database ready", "path", db.Path())

	return &store{cfg: cfg, log: log, db: db}, nil
}

// runtime wraps the database in a host runtime. publisher may be nil.
func (s *store) runtime(publisher host.Publisher) *host.Runtime {
	return host.NewRuntime(host.NewSQLiteStore(s.db.DB), host.RuntimeOptions{
		PluginID:     config.PluginID,
		PlatformName: config.PlatformName,
		Publisher:    publisher,
		Logger:       s.log.Component("host"),
	})
}

func (s *store) Close() error {
	return s.db.Close()
}
