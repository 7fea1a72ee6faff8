package ease

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"gll2txt/internal/completion"
	"gll2txt/internal/domain"
	"gll2txt/internal/layout"
)

// memFS fakes the output tree shared between oracle and fake port.
type memFS struct {
	files map[string]bool
}

func newMemFS() *memFS {
	return &memFS{files: map[string]bool{}}
}

// stat reports existence for the completion oracle.
func (m *memFS) stat(path string) (os.FileInfo, error) {
	if m.files[path] {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

// fakePort records automation calls and simulates vendor file writes.
type fakePort struct {
	fs *memFS

	launches  int
	launchErr error
	killed    int
	opens     []string
	saves     []string
	keys      []string
	combos    []string
	clicks    []string
	quiesces  int

	viewErr   error
	viewTried []string
	clickErr  map[string]error
}

func (f *fakePort) Launch(ctx context.Context, binary string) error {
	if f.launchErr != nil {
		return f.launchErr
	}
	f.launches++
	return nil
}

func (f *fakePort) OpenFile(ctx context.Context, dialog, path string) error {
	f.opens = append(f.opens, dialog+"|"+path)
	return nil
}

// SaveFile pretends the vendor wrote the export target.
func (f *fakePort) SaveFile(ctx context.Context, dialog, path string) error {
	f.saves = append(f.saves, path)
	f.fs.files[path] = true
	return nil
}

func (f *fakePort) SendKeys(ctx context.Context, window, keys string) error {
	f.keys = append(f.keys, keys)
	return nil
}

func (f *fakePort) FindResultsView(ctx context.Context, expectedTitle string) (string, []string, error) {
	if f.viewErr != nil {
		return "", f.viewTried, f.viewErr
	}
	return expectedTitle, nil, nil
}

func (f *fakePort) SelectCombo(ctx context.Context, window, control, item string) error {
	f.combos = append(f.combos, window+"|"+control+"|"+item)
	return nil
}

func (f *fakePort) Click(ctx context.Context, window, control string) error {
	if err := f.clickErr[control]; err != nil {
		return err
	}
	f.clicks = append(f.clicks, control)
	return nil
}

func (f *fakePort) WaitQuiescent(ctx context.Context) error {
	f.quiesces++
	return nil
}

func (f *fakePort) Kill() {
	f.killed++
}

// fakeArchiver records archive requests and registers the zip on success.
type fakeArchiver struct {
	fs     *memFS
	lb     *layout.Builder
	builds int
	err    error
}

func (a *fakeArchiver) Build(speakerName, configFile string) error {
	if a.err != nil {
		return a.err
	}
	a.builds++
	a.fs.files[a.lb.ArchiveFile(speakerName, configFile)] = true
	return nil
}

// newDriver wires a driver over fakes with a 90/10 grid (76 angle pairs).
func newDriver(fs *memFS) (*Driver, *fakePort, *fakeArchiver, *layout.Builder) {
	lb := layout.NewForTests(`C:\out`, func(string, os.FileMode) error { return nil })
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	oracle := completion.NewForTests(lb, grid, fs.stat)
	port := &fakePort{fs: fs}
	archiver := &fakeArchiver{fs: fs, lb: lb}
	d := NewDriverForTests(
		port, lb, oracle, archiver, grid,
		`C:\Program Files (x86)\AFMG\EASE GLLViewer\EASE GLLViewer.exe`,
		zap.NewNop().Sugar(),
		func(time.Duration) {},
	)
	return d, port, archiver, lb
}

// TestExtractHappyPath checks a full export cycle for a job with no config.
func TestExtractHappyPath(t *testing.T) {
	fs := newMemFS()
	d, port, archiver, lb := newDriver(fs)

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	if err := d.Extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}

	if port.launches != 1 {
		t.Fatalf("launches = %d, want 1", port.launches)
	}
	if port.killed != 1 {
		t.Fatalf("kills = %d, want 1", port.killed)
	}
	if len(port.opens) != 1 || port.opens[0] != dialogOpenGLL+`|C:\gll\acme-x1.gll` {
		t.Fatalf("opens = %v", port.opens)
	}
	// 76 angle tables plus sensitivity txt/png plus maxSPL txt/png.
	if len(port.saves) != 80 {
		t.Fatalf("saves = %d, want 80", len(port.saves))
	}
	if port.saves[0] != lb.AngleFile("Acme X1", "", "0°", "0°") {
		t.Fatalf("first save = %q", port.saves[0])
	}
	if archiver.builds != 1 {
		t.Fatalf("archive builds = %d, want 1", archiver.builds)
	}
	if d.State() != StateClosed {
		t.Fatalf("state = %s, want closed", d.State())
	}
}

// TestExtractCompletedJobOpensNoSession checks the idempotence fast path.
func TestExtractCompletedJobOpensNoSession(t *testing.T) {
	fs := newMemFS()
	d, port, archiver, lb := newDriver(fs)

	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	for _, m := range grid.Meridians() {
		for _, p := range grid.Parallels() {
			fs.files[lb.AngleFile("Acme X1", "", m, p)] = true
		}
	}
	for _, txt := range []string{lb.SensitivityFile("Acme X1", ""), lb.MaxSPLFile("Acme X1", "")} {
		fs.files[txt] = true
		fs.files[layout.PNGSibling(txt)] = true
	}
	fs.files[lb.ArchiveFile("Acme X1", "")] = true

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	if err := d.Extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if port.launches != 0 || len(port.saves) != 0 || port.killed != 0 {
		t.Fatalf("completed job touched the port: %+v", port)
	}
	if archiver.builds != 0 {
		t.Fatal("completed job should not archive")
	}
}

// TestExtractResumesPartialGrid checks only missing angles are exported.
func TestExtractResumesPartialGrid(t *testing.T) {
	fs := newMemFS()
	d, port, _, lb := newDriver(fs)

	// Pre-create the first 40 angle files in raster order.
	grid := layout.Grid{MeridianStep: 90, ParallelStep: 10}
	created := 0
	for _, m := range grid.Meridians() {
		for _, p := range grid.Parallels() {
			if created == 40 {
				break
			}
			fs.files[lb.AngleFile("Acme X1", "", m, p)] = true
			created++
		}
	}

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	if err := d.Extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}

	gridSaves := 0
	for _, save := range port.saves {
		if strings.Contains(save, " -M") {
			gridSaves++
		}
	}
	if gridSaves != 36 {
		t.Fatalf("grid saves = %d, want 36", gridSaves)
	}
	// Two parameter combos plus a meridian/parallel pair per exported angle.
	if len(port.combos) != 2*36+2 {
		t.Fatalf("combo selections = %d, want %d", len(port.combos), 2*36+2)
	}
}

// TestExtractLoadsOptionalConfig checks the config menu sequence runs only
// when a config file is present.
func TestExtractLoadsOptionalConfig(t *testing.T) {
	fs := newMemFS()
	d, port, _, _ := newDriver(fs)

	job := domain.SpeakerJob{
		SpeakerName: "Alcons LR7",
		GLLFile:     `C:\gll\LR7-V1_32.gll`,
		ConfigFile:  "/gll/Alcons Audio LR7 - single.xglc",
	}
	if err := d.Extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(port.opens) != 2 {
		t.Fatalf("opens = %v, want gll + config", port.opens)
	}
	if port.opens[1] != dialogOpenConfig+`|\gll\Alcons Audio LR7 - single.xglc` {
		t.Fatalf("config open = %q, want normalized separators", port.opens[1])
	}
	if port.keys[0] != keysConfigMenu {
		t.Fatalf("first keys = %q, want config menu accelerator", port.keys[0])
	}
}

// TestExtractAuxiliaryCurvePartialPair checks only the missing sibling of a
// curve pair is exported.
func TestExtractAuxiliaryCurvePartialPair(t *testing.T) {
	fs := newMemFS()
	d, port, _, lb := newDriver(fs)

	sensTxt := lb.SensitivityFile("Acme X1", "")
	fs.files[sensTxt] = true

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	if err := d.Extract(context.Background(), job); err != nil {
		t.Fatalf("extract: %v", err)
	}

	for _, save := range port.saves {
		if save == sensTxt {
			t.Fatal("existing sensitivity txt was re-exported")
		}
	}
	found := false
	for _, save := range port.saves {
		if save == layout.PNGSibling(sensTxt) {
			found = true
		}
	}
	if !found {
		t.Fatal("missing sensitivity png was not exported")
	}
}

// TestExtractParameterFailureClosesSession checks navigation failures kill
// the vendor process and surface a stage-tagged error.
func TestExtractParameterFailureClosesSession(t *testing.T) {
	fs := newMemFS()
	d, port, archiver, _ := newDriver(fs)
	port.clickErr = map[string]error{buttonAirAttenuation: errors.New("control not found")}

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	err := d.Extract(context.Background(), job)

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
	if perr.Stage != "set parameters" {
		t.Fatalf("stage = %q", perr.Stage)
	}
	if port.killed != 1 {
		t.Fatalf("kills = %d, want 1", port.killed)
	}
	if archiver.builds != 0 {
		t.Fatal("failed job should not archive")
	}
	if d.State() != StateFailed {
		t.Fatalf("state = %s, want failed", d.State())
	}
}

// TestExtractLaunchFailureHasNoSessionToTearDown checks launch errors fail
// the job without a kill.
func TestExtractLaunchFailureHasNoSessionToTearDown(t *testing.T) {
	fs := newMemFS()
	d, port, _, _ := newDriver(fs)
	port.launchErr = errors.New("executable missing")

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	if err := d.Extract(context.Background(), job); err == nil {
		t.Fatal("expected launch error")
	}
	if port.killed != 0 {
		t.Fatalf("kills = %d, want 0", port.killed)
	}
	if len(port.opens)+len(port.saves)+len(port.keys) != 0 {
		t.Fatal("no UI interaction should happen after a failed launch")
	}
}

// TestExtractViewNotFoundListsTriedWindows checks the descriptive failure.
func TestExtractViewNotFoundListsTriedWindows(t *testing.T) {
	fs := newMemFS()
	d, port, _, _ := newDriver(fs)
	port.viewErr = errors.New("no window with text appeared")
	port.viewTried = []string{"Untitled", "About"}

	job := domain.SpeakerJob{SpeakerName: "Acme X1", GLLFile: `C:\gll\acme-x1.gll`}
	err := d.Extract(context.Background(), job)

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProtocolError", err)
	}
	if perr.Stage != "identify view" {
		t.Fatalf("stage = %q", perr.Stage)
	}
	if !strings.Contains(perr.Error(), "Untitled") {
		t.Fatalf("error should list tried windows, got %q", perr.Error())
	}
	if port.killed != 1 {
		t.Fatalf("kills = %d, want 1", port.killed)
	}
}
