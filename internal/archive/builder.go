// Package archive bundles a completed export set into one zip per
// speaker/config combination.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"gll2txt/internal/completion"
	"gll2txt/internal/layout"
)

// ErrIncompleteGrid is returned when archiving is attempted before every
// export file exists.
var ErrIncompleteGrid = errors.New("not all export files have been generated")

// Builder creates the per-speaker archive once the oracle confirms the
// export set is complete.
type Builder struct {
	layout *layout.Builder
	grid   layout.Grid
	oracle *completion.Oracle
	log    *zap.SugaredLogger

	create func(string) (io.WriteCloser, error)
	open   func(string) (io.ReadCloser, error)
}

// New creates a builder writing real files.
func New(b *layout.Builder, grid layout.Grid, oracle *completion.Oracle, logger *zap.SugaredLogger) *Builder {
	return &Builder{
		layout: b,
		grid:   grid,
		oracle: oracle,
		log:    logger,
		create: func(name string) (io.WriteCloser, error) { return os.Create(name) },
		open:   func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

// NewForTests creates a builder with injectable file access.
func NewForTests(
	b *layout.Builder,
	grid layout.Grid,
	oracle *completion.Oracle,
	logger *zap.SugaredLogger,
	create func(string) (io.WriteCloser, error),
	open func(string) (io.ReadCloser, error),
) *Builder {
	return &Builder{layout: b, grid: grid, oracle: oracle, log: logger, create: create, open: open}
}

// Build writes the archive for one speaker/config combination. It fails
// without touching disk when the grid is incomplete and is a no-op when the
// archive already exists. Members are written in deterministic order: grid
// in raster order, then sensitivity txt/png, then maxSPL txt/png.
func (b *Builder) Build(speakerName, configFile string) error {
	if !b.oracle.GridDone(speakerName, configFile) {
		return fmt.Errorf("%s: %w", speakerName, ErrIncompleteGrid)
	}

	target := b.layout.ArchiveFile(speakerName, configFile)
	if b.oracle.ArchiveDone(speakerName, configFile) {
		b.log.Debugf("Archive already exists for %s", speakerName)
		return nil
	}

	out, err := b.create(target)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", target, err)
	}

	zw := zip.NewWriter(out)
	for _, member := range b.members(speakerName, configFile) {
		if err := b.addMember(zw, member); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", target, err)
	}

	b.log.Debugf("Archived %d files for %s", len(b.members(speakerName, configFile)), speakerName)
	return nil
}

// members returns every archive member path in raster order plus the four
// auxiliary curve files.
func (b *Builder) members(speakerName, configFile string) []string {
	paths := make([]string, 0, b.grid.Size()+4)
	for _, m := range b.grid.Meridians() {
		for _, p := range b.grid.Parallels() {
			paths = append(paths, b.layout.AngleFile(speakerName, configFile, m, p))
		}
	}
	sens := b.layout.SensitivityFile(speakerName, configFile)
	maxSPL := b.layout.MaxSPLFile(speakerName, configFile)
	return append(paths, sens, layout.PNGSibling(sens), maxSPL, layout.PNGSibling(maxSPL))
}

// addMember copies one export file into the archive under a root-relative
// name.
func (b *Builder) addMember(zw *zip.Writer, path string) error {
	src, err := b.open(path)
	if err != nil {
		return fmt.Errorf("open member %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(b.memberName(path))
	if err != nil {
		return fmt.Errorf("add member %s: %w", path, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write member %s: %w", path, err)
	}
	return nil
}

// memberName maps an output path to its zip entry name.
func (b *Builder) memberName(path string) string {
	rel := strings.TrimPrefix(path, b.layout.Root()+layout.Separator)
	return strings.ReplaceAll(rel, layout.Separator, "/")
}
