// Package diagnostics runs the startup checks that must pass before a
// batch can drive the vendor application.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gll2txt/internal/domain"
)

// Checker validates the vendor installation and required filesystem paths.
type Checker struct {
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		stat:       os.Stat,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		stat:       stat,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEaseBinary(settings.EaseBinaryPath),
		c.checkGLLDirectory(settings.GLLDirectory),
		c.checkOutputDir(settings.OutputDirectory),
		c.checkDatabasePath(settings.DatabasePath),
		c.checkGrid(settings.MeridianStep, settings.ParallelStep),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkEaseBinary verifies the GLLViewer executable exists.
func (c *Checker) checkEaseBinary(path string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "ease_binary",
		Name: "EASE GLLViewer",
	}

	if strings.TrimSpace(path) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "EASE binary path is empty."
		item.Hint = "Set the full path to EASE GLLViewer.exe in settings."
		return item
	}

	info, err := c.stat(path)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("EASE binary not found: %s", path)
		} else {
			item.Message = fmt.Sprintf("Cannot access EASE binary: %s", path)
		}
		item.Hint = "Install EASE GLLViewer or correct the configured path."
		return item
	}

	if info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("EASE binary path is a directory: %s", path)
		item.Hint = "Point the setting at the GLLViewer executable itself."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkGLLDirectory verifies the GLL source directory exists and holds at
// least one GLL file.
func (c *Checker) checkGLLDirectory(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "gll_dir",
		Name: "GLL directory",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "GLL directory is empty."
		item.Hint = "Set the directory containing the GLL files to process."
		return item
	}

	info, err := c.stat(dir)
	if err != nil || !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("GLL directory does not exist: %s", dir)
		item.Hint = "Check the path and that any network drive is mounted."
		return item
	}

	entries, err := c.readDir(dir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot read GLL directory: %s", dir)
		item.Hint = "Check permissions for the GLL directory."
		return item
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".gll") {
			item.Status = domain.DiagnosticStatusPass
			item.Message = fmt.Sprintf("GLL directory is valid: %s", dir)
			return item
		}
	}

	// Files in subdirectories still count during the batch scan, so an
	// empty top level only warrants a hint, not a failure.
	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("No GLL files at the top level of %s", dir)
	item.Hint = "Files in subdirectories are still picked up by the scan."
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where exported data can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for exports."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkDatabasePath verifies the speaker database parent directory can be
// created.
func (c *Checker) checkDatabasePath(path string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "database",
		Name: "Speaker database",
	}

	if strings.TrimSpace(path) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Database path is empty."
		item.Hint = "Set a file path for the speaker metadata database."
		return item
	}

	if err := c.mkdirAll(filepath.Dir(path), 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create database directory: %s", filepath.Dir(path))
		item.Hint = "Choose a writable location for the database file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Database location ready: %s", path)
	return item
}

// checkGrid validates the measurement grid steps against the values the
// GLLViewer combo boxes accept.
func (c *Checker) checkGrid(meridianStep int, parallelStep float64) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "grid",
		Name: "Measurement grid",
	}

	if meridianStep <= 0 || 360%meridianStep != 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Meridian step %d does not divide 360.", meridianStep)
		item.Hint = "Use a meridian step like 45 or 90 degrees."
		return item
	}

	switch parallelStep {
	case 2.5, 5, 10:
	default:
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Parallel step %v is not offered by the viewer.", parallelStep)
		item.Hint = "Use 2.5, 5 or 10 degrees."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Grid %d°/%v° is valid.", meridianStep, parallelStep)
	return item
}
