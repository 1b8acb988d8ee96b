package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Manage agents, knowledge bases, and credentials",
	Long: `console drives the Remote Agent Service from the command line.
It loads agents, uploads and reconciles documents, edits roles, and manages
access keys and stored provider credentials.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default config.toml with overlays)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(formatText), "Output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(apiKeysCmd)
	rootCmd.AddCommand(providersCmd)
}
