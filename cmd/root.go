package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "awtempo",
	Short: "awtempo – ActivityWatch to Jira Tempo worklog reconciliation",
	Long: `awtempo turns ActivityWatch window-focus history into placed, rounded
Jira Tempo worklogs. All configuration lives as editable files in ~/.awtempo/.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default ~/.awtempo/config.toml)")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(directCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig resolves the config path, loads and validates the file, and
// wires up logging at the configured level.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	logger.Setup(cfg.LogLevel)
	return cfg, nil
}
