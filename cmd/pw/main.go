// Package main provides the pw CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/matsen/patentwatch/internal/config"
	"github.com/matsen/patentwatch/internal/logging"
	"github.com/matsen/patentwatch/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// Global flags
var (
	humanOutput bool
	configPath  string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors (bad flags, missing args) are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pw",
	Short: "Track software-related patent applications in the weekly journal",
	Long: `pw watches the weekly patent journal for newly published applications.

Pipeline stages:
  - discover: find new journal issues and download their parts
  - extract:  pull application entries out of downloaded parts
  - classify: sort extracted applications by software relevance

Results live in a local SQLite database. Commands print JSON by default;
pass --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is the normal case.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/patentwatch/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger builds the stderr logger for a command; --log-level wins over config.
func newLogger(cfg config.Config) *logrus.Logger {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(level, os.Stderr)
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg config.Config) *storage.DB {
	db, err := storage.OpenDB(cfg.DBPath(), storage.WithLogger(newLogger(cfg)))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
