package main

import (
	"github.com/spf13/cobra"

	"gll2txt/internal/config"
	"gll2txt/internal/domain"
)

var (
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "gll2txt",
	Short: "Batch-extract acoustic data from GLL files via EASE GLLViewer",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(speakersCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to settings file")
}

// loadSettings reads the settings file named by --config or the default
// location.
func loadSettings() (domain.Settings, error) {
	path := configFile
	if path == "" {
		path = config.DefaultSettingsPath()
	}
	return config.NewJSONStore(path).Load()
}
