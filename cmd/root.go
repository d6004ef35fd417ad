package cmd

import (
	"fmt"
	"os"

	"github.com/jjenkins/billtracker/internal/config"
	"github.com/jjenkins/billtracker/internal/logger"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "billtracker",
	Short: "Track city and state bills and run phone bank power hours",
	Long: `billtracker follows council and state legislature bills, keeps their
sponsor lists in sync, and generates shared spreadsheets for advocacy calls.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (env vars take precedence)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger every subcommand shares
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(config.New(), configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}
