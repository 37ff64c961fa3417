// Package main implements the taskhub CLI and HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskhub/internal/config"
	"taskhub/internal/logging"
)

var (
	configPath string
	addr       string
	projectsDB string
	tasksDB    string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "taskhub",
	Short:         "taskhub - project and task tracking API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		logger, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyFlags lets explicitly set flags win over file and environment values.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		c.Server.Addr = addr
	}
	if flags.Changed("projects-db") {
		c.Database.ProjectsPath = projectsDB
	}
	if flags.Changed("tasks-db") {
		c.Database.TasksPath = tasksDB
	}
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "HTTP listen address (or set "+config.EnvAddr+")")
	rootCmd.PersistentFlags().StringVar(&projectsDB, "projects-db", "", "Project database path (or set "+config.EnvProjectsDB+")")
	rootCmd.PersistentFlags().StringVar(&tasksDB, "tasks-db", "", "Task record store path (or set "+config.EnvTasksDB+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
