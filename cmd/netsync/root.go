package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"netsync/internal/config"
	"netsync/internal/observability"
	"netsync/internal/repository"
	"netsync/internal/repository/sqlite"
)

// Version is set at build time
var Version = "dev"

// app carries the state the root command prepares for its subcommands
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "netsync",
		Short:         "Reconcile network controller inventory into a site and device graph",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default searches $NETSYNC_CONFIG, ./netsync.yaml, ~/.config/netsync)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console, json")
	flags.String("log-file", "", "also write JSON logs to this rotating file")
	flags.String("db", "", "SQLite database recording runs")
	bindFlags(a.v, flags, map[string]string{
		"logger.level":    "log-level",
		"logger.format":   "log-format",
		"logger.log_file": "log-file",
		"database.path":   "db",
	})

	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newRunsCmd(a))
	root.AddCommand(newQuarantineCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// initialize loads the config file, applies env and flag overrides and
// builds the logger.
func (a *app) initialize() error {
	var err error
	if a.cfgFile != "" {
		a.cfg, a.cfgPath, err = config.LoadFromPath(a.cfgFile)
	} else {
		a.cfg, a.cfgPath, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a.v.SetEnvPrefix("NETSYNC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	a.cfg.ApplyOverrides(a.v)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = observability.NewLogger(a.cfg.Logger)
	if a.cfgPath != "" {
		a.logger.Debug("Configuration loaded", zap.String("path", a.cfgPath))
	}
	return nil
}

// openRepository opens the run database. No database path means no
// repository, returned as a nil interface.
func (a *app) openRepository() (repository.Repository, error) {
	if a.cfg.Database.Path == "" {
		return nil, nil
	}
	if err := config.EnsureConfigDir(a.cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	repo, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
