// Package layout computes the deterministic output tree for extracted
// speaker data. Every path it returns is eventually typed into a file dialog
// of the Windows-only vendor application, so the naming scheme uses
// backslash separators regardless of host platform.
package layout

import (
	"os"
	"strings"
)

// Separator is the path separator of the vendor application's OS.
const Separator = `\`

// Builder derives output paths for one output root.
type Builder struct {
	root     string
	mkdirAll func(string, os.FileMode) error
}

// New creates a builder writing under root.
func New(root string) *Builder {
	return &Builder{root: Normalize(root), mkdirAll: os.MkdirAll}
}

// NewForTests creates a builder with an injectable directory creator.
func NewForTests(root string, mkdirAll func(string, os.FileMode) error) *Builder {
	return &Builder{root: Normalize(root), mkdirAll: mkdirAll}
}

// Root returns the normalized output root.
func (b *Builder) Root() string {
	return b.root
}

// SpeakerDir returns the per-speaker directory: root\speakerName, suffixed
// with -<configBaseName> when a configuration file is given. Pure; see
// EnsureSpeakerDir for the creating variant.
func (b *Builder) SpeakerDir(speakerName, configFile string) string {
	dir := b.root + Separator + speakerName
	if configFile != "" {
		dir += "-" + configSuffix(configFile)
	}
	return dir
}

// EnsureSpeakerDir returns the speaker directory, creating it and its
// parents when absent.
func (b *Builder) EnsureSpeakerDir(speakerName, configFile string) (string, error) {
	dir := b.SpeakerDir(speakerName, configFile)
	if err := b.mkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// AngleFile returns the export target for one (meridian, parallel) pair.
// Labels carry the vendor degree suffix, which is stripped in the filename.
func (b *Builder) AngleFile(speakerName, configFile, meridian, parallel string) string {
	dir := b.SpeakerDir(speakerName, configFile)
	return dir + Separator + Base(dir) +
		" -M" + strings.TrimSuffix(meridian, Degree) +
		"-P" + strings.TrimSuffix(parallel, Degree) + ".txt"
}

// SensitivityFile returns the sensitivity curve text export target.
func (b *Builder) SensitivityFile(speakerName, configFile string) string {
	return b.SpeakerDir(speakerName, configFile) + Separator + speakerName + " -sensitivity.txt"
}

// MaxSPLFile returns the max-SPL curve text export target.
func (b *Builder) MaxSPLFile(speakerName, configFile string) string {
	return b.SpeakerDir(speakerName, configFile) + Separator + speakerName + " -maxSPL.txt"
}

// ArchiveFile returns the per-speaker zip archive path.
func (b *Builder) ArchiveFile(speakerName, configFile string) string {
	name := speakerName
	if configFile != "" {
		name += "-" + configSuffix(configFile)
	}
	return b.SpeakerDir(speakerName, configFile) + Separator + name + ".zip"
}

// PNGSibling maps a .txt export path to its paired picture export.
func PNGSibling(txtPath string) string {
	return strings.TrimSuffix(txtPath, ".txt") + ".png"
}

// Normalize rewrites forward slashes to the vendor separator.
func Normalize(p string) string {
	return strings.ReplaceAll(p, "/", Separator)
}

// Base returns the last path element of a vendor-style path.
func Base(p string) string {
	p = Normalize(p)
	if i := strings.LastIndex(p, Separator); i >= 0 {
		return p[i+len(Separator):]
	}
	return p
}

// configSuffix is the config file base name without its extension.
func configSuffix(configFile string) string {
	base := Base(configFile)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
