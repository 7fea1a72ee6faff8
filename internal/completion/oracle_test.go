package completion

import (
	"os"
	"testing"

	"gll2txt/internal/layout"
)

// memFS fakes on-disk artifacts as a path set.
type memFS struct {
	files map[string]bool
}

// stat reports existence for oracle probing.
func (m *memFS) stat(path string) (os.FileInfo, error) {
	if m.files[path] {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

// add registers one artifact.
func (m *memFS) add(path string) {
	if m.files == nil {
		m.files = map[string]bool{}
	}
	m.files[path] = true
}

// fillJob registers every artifact a complete job produces.
func fillJob(fs *memFS, b *layout.Builder, grid layout.Grid, speaker, config string, archive bool) {
	for _, m := range grid.Meridians() {
		for _, p := range grid.Parallels() {
			fs.add(b.AngleFile(speaker, config, m, p))
		}
	}
	for _, txt := range []string{b.SensitivityFile(speaker, config), b.MaxSPLFile(speaker, config)} {
		fs.add(txt)
		fs.add(layout.PNGSibling(txt))
	}
	if archive {
		fs.add(b.ArchiveFile(speaker, config))
	}
}

// TestSensitivityRequiresBothSiblings checks the txt+png pair rule.
func TestSensitivityRequiresBothSiblings(t *testing.T) {
	b := layout.New(`C:\out`)
	fs := &memFS{}
	o := NewForTests(b, layout.DefaultGrid(), fs.stat)

	txt := b.SensitivityFile("Acme X1", "")
	fs.add(txt)
	if o.SensitivityDone("Acme X1", "") {
		t.Fatal("txt alone should not be complete")
	}

	fs.add(layout.PNGSibling(txt))
	if !o.SensitivityDone("Acme X1", "") {
		t.Fatal("txt+png pair should be complete")
	}
}

// TestGridDoneNeedsEveryAngle checks one missing angle fails the grid.
func TestGridDoneNeedsEveryAngle(t *testing.T) {
	b := layout.New(`C:\out`)
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := &memFS{}
	fillJob(fs, b, grid, "Acme X1", "", false)
	o := NewForTests(b, grid, fs.stat)

	if !o.GridDone("Acme X1", "") {
		t.Fatal("full grid should be complete")
	}

	delete(fs.files, b.AngleFile("Acme X1", "", "180°", "40°"))
	if o.GridDone("Acme X1", "") {
		t.Fatal("grid with a missing angle should be incomplete")
	}
}

// TestJobDoneRequiresArchive checks job completeness includes the zip.
func TestJobDoneRequiresArchive(t *testing.T) {
	b := layout.New(`C:\out`)
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := &memFS{}
	fillJob(fs, b, grid, "Acme X1", "", false)
	o := NewForTests(b, grid, fs.stat)

	if o.JobDone("Acme X1", "") {
		t.Fatal("job without archive should be incomplete")
	}

	fs.add(b.ArchiveFile("Acme X1", ""))
	if !o.JobDone("Acme X1", "") {
		t.Fatal("job with grid and archive should be complete")
	}
}

// TestJobDoneIsIdempotent checks repeated queries agree without writes.
func TestJobDoneIsIdempotent(t *testing.T) {
	b := layout.New(`C:\out`)
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := &memFS{}
	fillJob(fs, b, grid, "Acme X1", "single.xglc", true)
	o := NewForTests(b, grid, fs.stat)

	first := o.JobDone("Acme X1", "single.xglc")
	second := o.JobDone("Acme X1", "single.xglc")
	if !first || first != second {
		t.Fatalf("JobDone = %v then %v, want stable true", first, second)
	}
}
