package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/blockloom/internal/config"
	"github.com/aretw0/blockloom/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "blockloom",
	Short: "blockloom writes block trees into a hierarchical content store",
	Long: `blockloom compiles YAML or JSON documents into block trees and writes them
through an append API limited to 100 siblings and 3 nesting levels per call.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}

		level, err := loaded.Level()
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
