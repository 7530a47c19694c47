package main

import (
	"os"

	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "tokenfactory",
	Short:        "Refresh a bearer token from a token-generation endpoint before every request",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.PathFromEnv(), "settings file (TOML or YAML)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
