// Package main is the entry point for the daybook CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daybook-dev/daybook/internal/config"
	"github.com/daybook-dev/daybook/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string
	var configFile string

	cmd := &cobra.Command{
		Use:   "daybook",
		Short: "Personal journal with long-term memory",
		Long: `Daybook keeps a personal journal and remembers it: entries are
embedded into a semantic index so you can search by meaning and surface
recurring themes.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")

	cmd.AddCommand(addCmd(&envFile, &configFile))
	cmd.AddCommand(searchCmd(&envFile, &configFile))
	cmd.AddCommand(themesCmd(&envFile, &configFile))
	cmd.AddCommand(statsCmd(&envFile, &configFile))
	cmd.AddCommand(drainCmd(&envFile, &configFile))
	cmd.AddCommand(rebuildCmd(&envFile, &configFile))
	cmd.AddCommand(cleanupCmd(&envFile, &configFile))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from the .env file, environment
// variables, and an optional YAML config file.
func loadConfig(envFile, configFile string) (config.AppConfig, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.AppConfig{}, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	log.Configure(cfg).SetDefault()
	return cfg, nil
}
