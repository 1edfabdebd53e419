// SPDX-License-Identifier: MIT

// Package cmd wires the command line onto the engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonecoach/internal/config"
	"tonecoach/internal/log"
	"tonecoach/internal/tone"
	"tonecoach/pkg/build"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	debug      bool
	logLevel   string

	cfg *config.Config
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "f", "",
		"Path to a YAML config file (default: ./config.yaml or ./tonecoach.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.newRecordCommand(),
		a.newAnalyzeCommand(),
		a.newDevicesCommand(),
		a.newHistoryCommand(),
	)
	return rootCmd
}

// Execute runs the command line against os.Args.
func Execute() error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

func (a *app) loadConfig() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := log.Configure(cfg.LogLevel, cfg.Debug || a.debug); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// parseTone accepts English or Thai tone names for --tone.
func parseTone(s string) (tone.Tone, error) {
	t, err := tone.Parse(s)
	if err != nil {
		return tone.None, fmt.Errorf("--tone: %w (want one of middle, low, falling, high, rising)", err)
	}
	return t, nil
}
