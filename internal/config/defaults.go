package config

import (
	"os"
	"path/filepath"

	"gll2txt/internal/domain"
)

// Default install locations for the vendor application and the GLL share.
// These match the standard AFMG installer path and the network drive layout
// the tool was built around; operators override them in the settings file.
const (
	defaultEaseBinary = `C:\Program Files (x86)\AFMG\EASE GLLViewer\EASE GLLViewer.exe`
	defaultGLLDir     = `Z:\GLL`
)

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		EaseBinaryPath:  defaultEaseBinary,
		GLLDirectory:    defaultGLLDir,
		OutputDirectory: filepath.Join(homeDir, "Documents", "GLL2TXT_Output"),
		DatabasePath:    filepath.Join(homeDir, ".gll2txt", "speakers.db"),
		MeridianStep:    90,
		ParallelStep:    5,
		LogLevel:        "info",
	}
}

// DefaultSettingsPath returns the standard settings file location.
func DefaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".gll2txt", "settings.json")
}
