package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"go.uber.org/zap"

	"gll2txt/internal/completion"
	"gll2txt/internal/layout"
)

// memFS fakes the output tree for archive building.
type memFS struct {
	files   map[string][]byte
	created []string
}

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}}
}

// memFile commits buffered bytes back into the fake tree on close.
type memFile struct {
	bytes.Buffer
	fs   *memFS
	path string
}

// Close stores the written archive content.
func (f *memFile) Close() error {
	f.fs.files[f.path] = append([]byte(nil), f.Bytes()...)
	return nil
}

// stat reports existence for the completion oracle.
func (m *memFS) stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

// create tracks archive creation.
func (m *memFS) create(path string) (io.WriteCloser, error) {
	m.created = append(m.created, path)
	return &memFile{fs: m, path: path}, nil
}

// open returns a reader over fake file content.
func (m *memFS) open(path string) (io.ReadCloser, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// add registers one fake export file.
func (m *memFS) add(path, content string) {
	m.files[path] = []byte(content)
}

// newBuilder wires a builder, oracle and fake tree for one test.
func newBuilder(fs *memFS, grid layout.Grid) (*Builder, *layout.Builder, *completion.Oracle) {
	lb := layout.New(`C:\out`)
	oracle := completion.NewForTests(lb, grid, fs.stat)
	b := NewForTests(lb, grid, oracle, zap.NewNop().Sugar(), fs.create, fs.open)
	return b, lb, oracle
}

// fillExports registers every export file for one speaker.
func fillExports(fs *memFS, lb *layout.Builder, grid layout.Grid, speaker, config string) {
	for _, m := range grid.Meridians() {
		for _, p := range grid.Parallels() {
			fs.add(lb.AngleFile(speaker, config, m, p), "data "+m+" "+p)
		}
	}
	for _, txt := range []string{lb.SensitivityFile(speaker, config), lb.MaxSPLFile(speaker, config)} {
		fs.add(txt, "curve")
		fs.add(layout.PNGSibling(txt), "png")
	}
}

// TestBuildFailsOnIncompleteGrid checks the precondition creates nothing.
func TestBuildFailsOnIncompleteGrid(t *testing.T) {
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := newMemFS()
	b, lb, _ := newBuilder(fs, grid)
	fillExports(fs, lb, grid, "Acme X1", "")
	delete(fs.files, lb.AngleFile("Acme X1", "", "0°", "0°"))

	err := b.Build("Acme X1", "")
	if !errors.Is(err, ErrIncompleteGrid) {
		t.Fatalf("error = %v, want ErrIncompleteGrid", err)
	}
	if len(fs.created) != 0 {
		t.Fatalf("archive files created = %v, want none", fs.created)
	}
}

// TestBuildWritesDeterministicMemberOrder checks the zip content and order.
func TestBuildWritesDeterministicMemberOrder(t *testing.T) {
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := newMemFS()
	b, lb, _ := newBuilder(fs, grid)
	fillExports(fs, lb, grid, "Acme X1", "")

	if err := b.Build("Acme X1", ""); err != nil {
		t.Fatalf("build: %v", err)
	}

	content := fs.files[lb.ArchiveFile("Acme X1", "")]
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != grid.Size()+4 {
		t.Fatalf("member count = %d, want %d", len(zr.File), grid.Size()+4)
	}
	if zr.File[0].Name != "Acme X1/Acme X1 -M0-P0.txt" {
		t.Fatalf("first member = %q", zr.File[0].Name)
	}
	last := zr.File[len(zr.File)-1].Name
	if last != "Acme X1/Acme X1 -maxSPL.png" {
		t.Fatalf("last member = %q", last)
	}
	if zr.File[len(zr.File)-4].Name != "Acme X1/Acme X1 -sensitivity.txt" {
		t.Fatalf("sensitivity member = %q", zr.File[len(zr.File)-4].Name)
	}
}

// TestBuildIsIdempotent checks an existing archive short-circuits.
func TestBuildIsIdempotent(t *testing.T) {
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	fs := newMemFS()
	b, lb, _ := newBuilder(fs, grid)
	fillExports(fs, lb, grid, "Acme X1", "")

	if err := b.Build("Acme X1", ""); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := b.Build("Acme X1", ""); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if len(fs.created) != 1 {
		t.Fatalf("create calls = %d, want 1", len(fs.created))
	}
}
