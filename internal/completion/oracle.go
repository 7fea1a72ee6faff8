// Package completion decides whether extraction artifacts already exist on
// disk. The output tree is the durable record of finished work: the batch
// coordinator and the automation driver consult the oracle to skip work that
// a previous run, possibly of another process, already produced.
package completion

import (
	"os"

	"gll2txt/internal/layout"
)

// Oracle answers read-only existence questions about one output root.
type Oracle struct {
	layout *layout.Builder
	grid   layout.Grid
	stat   func(string) (os.FileInfo, error)
}

// New creates an oracle probing the real filesystem.
func New(b *layout.Builder, grid layout.Grid) *Oracle {
	return &Oracle{layout: b, grid: grid, stat: os.Stat}
}

// NewForTests creates an oracle with an injectable stat.
func NewForTests(b *layout.Builder, grid layout.Grid, stat func(string) (os.FileInfo, error)) *Oracle {
	return &Oracle{layout: b, grid: grid, stat: stat}
}

// FileExists reports whether a single artifact path exists.
func (o *Oracle) FileExists(path string) bool {
	_, err := o.stat(path)
	return err == nil
}

// AngleDone reports whether the text export for one angle pair exists.
func (o *Oracle) AngleDone(speakerName, configFile, meridian, parallel string) bool {
	return o.FileExists(o.layout.AngleFile(speakerName, configFile, meridian, parallel))
}

// SensitivityDone reports whether both sensitivity exports exist.
func (o *Oracle) SensitivityDone(speakerName, configFile string) bool {
	txt := o.layout.SensitivityFile(speakerName, configFile)
	return o.FileExists(txt) && o.FileExists(layout.PNGSibling(txt))
}

// MaxSPLDone reports whether both max-SPL exports exist.
func (o *Oracle) MaxSPLDone(speakerName, configFile string) bool {
	txt := o.layout.MaxSPLFile(speakerName, configFile)
	return o.FileExists(txt) && o.FileExists(layout.PNGSibling(txt))
}

// GridDone reports whether every angle pair plus both auxiliary curve pairs
// exist.
func (o *Oracle) GridDone(speakerName, configFile string) bool {
	for _, m := range o.grid.Meridians() {
		for _, p := range o.grid.Parallels() {
			if !o.AngleDone(speakerName, configFile, m, p) {
				return false
			}
		}
	}
	if !o.SensitivityDone(speakerName, configFile) {
		return false
	}
	return o.MaxSPLDone(speakerName, configFile)
}

// ArchiveDone reports whether the per-speaker archive exists.
func (o *Oracle) ArchiveDone(speakerName, configFile string) bool {
	return o.FileExists(o.layout.ArchiveFile(speakerName, configFile))
}

// JobDone reports whether a job is fully finished: complete grid and
// archive. The coordinator uses this to avoid opening a vendor session at
// all.
func (o *Oracle) JobDone(speakerName, configFile string) bool {
	return o.GridDone(speakerName, configFile) && o.ArchiveDone(speakerName, configFile)
}
