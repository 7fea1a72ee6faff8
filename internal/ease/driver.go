package ease

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gll2txt/internal/completion"
	"gll2txt/internal/domain"
	"gll2txt/internal/layout"
)

// Archiver finalizes a completed export set into the per-speaker archive.
type Archiver interface {
	Build(speakerName, configFile string) error
}

// Driver executes the full export protocol for one speaker job against the
// vendor application. It owns no persistent state between jobs beyond the
// protocol State, which resets on the next Extract.
type Driver struct {
	port     Port
	layout   *layout.Builder
	oracle   *completion.Oracle
	archiver Archiver
	grid     layout.Grid
	binary   string
	log      *zap.SugaredLogger

	state State
	// settle is the fixed pause after window transitions so the target
	// window accepts focus before the next keystroke.
	settle time.Duration
	sleep  func(time.Duration)
}

// NewDriver builds a driver for the configured vendor binary.
func NewDriver(
	port Port,
	lb *layout.Builder,
	oracle *completion.Oracle,
	archiver Archiver,
	grid layout.Grid,
	binary string,
	logger *zap.SugaredLogger,
) *Driver {
	return &Driver{
		port:     port,
		layout:   lb,
		oracle:   oracle,
		archiver: archiver,
		grid:     grid,
		binary:   binary,
		log:      logger,
		state:    StateDisconnected,
		settle:   time.Second,
		sleep:    time.Sleep,
	}
}

// NewDriverForTests builds a driver with an injectable sleep.
func NewDriverForTests(
	port Port,
	lb *layout.Builder,
	oracle *completion.Oracle,
	archiver Archiver,
	grid layout.Grid,
	binary string,
	logger *zap.SugaredLogger,
	sleep func(time.Duration),
) *Driver {
	d := NewDriver(port, lb, oracle, archiver, grid, binary, logger)
	d.sleep = sleep
	return d
}

// State returns the driver's current protocol state.
func (d *Driver) State() State {
	return d.state
}

// Extract runs the complete export cycle for one job: launch, load, set
// parameters, export the angle grid and both auxiliary curves, archive. The
// vendor process is terminated on every exit path once launched. Jobs the
// completion oracle reports as done return immediately without opening a
// session.
func (d *Driver) Extract(ctx context.Context, job domain.SpeakerJob) error {
	name, config := job.SpeakerName, job.ConfigFile

	if d.oracle.JobDone(name, config) {
		d.log.Debugf("Processing done for %s!", name)
		return nil
	}

	if _, err := d.layout.EnsureSpeakerDir(name, config); err != nil {
		return d.fail("prepare output", job, "could not create speaker directory", nil, err)
	}

	if err := d.transition(StateLaunching); err != nil {
		return err
	}
	if err := d.port.Launch(ctx, d.binary); err != nil {
		// No session to tear down yet.
		d.state = StateFailed
		return d.protocolError("launch", job, "could not start vendor application", nil, err)
	}
	d.log.Debugf("Connected to %s", layout.Base(d.binary))
	defer d.port.Kill()

	view, err := d.openJob(ctx, job)
	if err != nil {
		return err
	}

	if err := d.exportGrid(ctx, view, job); err != nil {
		return err
	}
	if err := d.exportSensitivity(ctx, view, job); err != nil {
		return err
	}
	if err := d.exportMaxSPL(ctx, view, job); err != nil {
		return err
	}

	if err := d.transition(StateArchiving); err != nil {
		return err
	}
	if err := d.archiver.Build(name, config); err != nil {
		return d.fail("archive", job, "could not archive export set", nil, err)
	}

	if err := d.transition(StateClosed); err != nil {
		return err
	}
	d.log.Debugf("Success for %s!", name)
	return nil
}

// openJob loads the GLL and optional config file, identifies the results
// view, and applies the fixed calculation parameters. It returns the title
// of the results view every later keystroke targets.
func (d *Driver) openJob(ctx context.Context, job domain.SpeakerJob) (string, error) {
	if err := d.port.OpenFile(ctx, dialogOpenGLL, layout.Normalize(job.GLLFile)); err != nil {
		return "", d.fail("load gll", job, "could not load GLL file", nil, err)
	}
	d.sleep(d.settle)
	if err := d.transition(StateGLLLoaded); err != nil {
		return "", err
	}

	view, tried, err := d.port.FindResultsView(ctx, expectedViewTitle(job))
	if err != nil {
		return "", d.fail("identify view", job, "could not find results view", tried, err)
	}

	if job.ConfigFile != "" {
		if err := d.port.SendKeys(ctx, view, keysConfigMenu); err != nil {
			return "", d.fail("load config", job, "could not open configuration menu", nil, err)
		}
		if err := d.port.OpenFile(ctx, dialogOpenConfig, layout.Normalize(job.ConfigFile)); err != nil {
			return "", d.fail("load config", job, "could not load configuration file", nil, err)
		}
		d.sleep(d.settle)
		if err := d.transition(StateConfigLoaded); err != nil {
			return "", err
		}
	}

	if err := d.port.SendKeys(ctx, view, keysRefresh); err != nil {
		return "", d.fail("refresh", job, "could not refresh results view", nil, err)
	}
	if err := d.setParameters(ctx, job); err != nil {
		return "", err
	}
	d.sleep(d.settle)
	if err := d.transition(StateParametersSet); err != nil {
		return "", err
	}
	return view, nil
}

// setParameters fills the calculation parameters dialog: resolution and
// distance combos, the air attenuation toggle (a button, not a checkbox),
// and the AES2 input signal preset, then confirms.
func (d *Driver) setParameters(ctx context.Context, job domain.SpeakerJob) error {
	if err := d.port.SelectCombo(ctx, dialogParameters, comboResolution, resolutionLabel); err != nil {
		return d.fail("set parameters", job, "could not select angular resolution", nil, err)
	}
	if err := d.port.SelectCombo(ctx, dialogParameters, comboDistance, distanceLabel); err != nil {
		return d.fail("set parameters", job, "could not select measurement distance", nil, err)
	}
	if err := d.port.Click(ctx, dialogParameters, buttonAirAttenuation); err != nil {
		return d.fail("set parameters", job, "could not enable air attenuation", nil, err)
	}
	if err := d.port.Click(ctx, dialogParameters, buttonInputSignal); err != nil {
		return d.fail("set parameters", job, "could not select input signal", nil, err)
	}
	if err := d.port.Click(ctx, dialogParameters, buttonOK); err != nil {
		return d.fail("set parameters", job, "could not confirm parameters", nil, err)
	}
	return nil
}

// exportGrid iterates the measurement grid in raster order and exports the
// transfer function table for every pair the oracle does not already have.
// Quiescence waits bracket each export: a keystroke issued while the viewer
// is still computing corrupts the sequence.
func (d *Driver) exportGrid(ctx context.Context, view string, job domain.SpeakerJob) error {
	if err := d.transition(StateExportingGrid); err != nil {
		return err
	}
	if err := d.port.WaitQuiescent(ctx); err != nil {
		return d.fail("export grid", job, "vendor application never settled", nil, err)
	}
	if err := d.port.SendKeys(ctx, view, keysTransferFunction); err != nil {
		return d.fail("export grid", job, "could not open transfer function view", nil, err)
	}
	d.sleep(d.settle)

	name, config := job.SpeakerName, job.ConfigFile
	for _, m := range d.grid.Meridians() {
		for _, p := range d.grid.Parallels() {
			if d.oracle.AngleDone(name, config, m, p) {
				d.log.Infof("Skipping meridian %s and parallel %s for %s", m, p, name)
				continue
			}

			if err := d.port.SelectCombo(ctx, view, comboMeridian, m); err != nil {
				return d.fail("export grid", job, "could not select meridian "+m, nil, err)
			}
			if err := d.port.SelectCombo(ctx, view, comboParallel, p); err != nil {
				return d.fail("export grid", job, "could not select parallel "+p, nil, err)
			}

			target := d.layout.AngleFile(name, config, m, p)
			if err := d.exportTable(ctx, view, target); err != nil {
				return d.fail("export grid", job, "could not export table for meridian "+m+" parallel "+p, nil, err)
			}
			d.log.Infof("Saved meridian %s and parallel %s for %s", m, p, name)
		}
	}
	return nil
}

// exportSensitivity exports the sensitivity curve table and plot unless both
// already exist.
func (d *Driver) exportSensitivity(ctx context.Context, view string, job domain.SpeakerJob) error {
	if err := d.transition(StateExportingSensitivity); err != nil {
		return err
	}

	name, config := job.SpeakerName, job.ConfigFile
	if d.oracle.SensitivityDone(name, config) {
		d.log.Debugf("Skipping sensitivity for %s because it already exists", name)
		return nil
	}

	txt := d.layout.SensitivityFile(name, config)
	if err := d.exportCurve(ctx, view, job, keysSensitivityView, txt); err != nil {
		return d.fail("export sensitivity", job, "could not export sensitivity curve", nil, err)
	}
	return nil
}

// exportMaxSPL exports the max-SPL curve table and plot unless both already
// exist.
func (d *Driver) exportMaxSPL(ctx context.Context, view string, job domain.SpeakerJob) error {
	if err := d.transition(StateExportingMaxSPL); err != nil {
		return err
	}

	name, config := job.SpeakerName, job.ConfigFile
	if d.oracle.MaxSPLDone(name, config) {
		d.log.Debugf("Skipping maxSPL for %s because it already exists", name)
		return nil
	}

	txt := d.layout.MaxSPLFile(name, config)
	if err := d.exportCurve(ctx, view, job, keysMaxSPLView, txt); err != nil {
		return d.fail("export maxspl", job, "could not export max-SPL curve", nil, err)
	}
	return nil
}

// exportCurve switches to an auxiliary curve view and exports whichever of
// the txt/png pair is missing.
func (d *Driver) exportCurve(ctx context.Context, view string, job domain.SpeakerJob, viewKeys, txt string) error {
	if err := d.port.WaitQuiescent(ctx); err != nil {
		return err
	}
	if err := d.port.SendKeys(ctx, view, viewKeys); err != nil {
		return err
	}

	if !d.oracle.FileExists(txt) {
		if err := d.exportTable(ctx, view, txt); err != nil {
			return err
		}
	}

	png := layout.PNGSibling(txt)
	if !d.oracle.FileExists(png) {
		if err := d.exportPicture(ctx, view, png); err != nil {
			return err
		}
	}
	return nil
}

// exportTable runs the "send table to file" sequence for the current view.
func (d *Driver) exportTable(ctx context.Context, view, target string) error {
	if err := d.port.WaitQuiescent(ctx); err != nil {
		return err
	}
	if err := d.port.SendKeys(ctx, view, keysSendTableToFile); err != nil {
		return err
	}
	if err := d.port.SaveFile(ctx, dialogExportData, target); err != nil {
		return err
	}
	return d.port.WaitQuiescent(ctx)
}

// exportPicture runs the arrow-key "send picture to file" sequence for the
// current view.
func (d *Driver) exportPicture(ctx context.Context, view, target string) error {
	if err := d.port.WaitQuiescent(ctx); err != nil {
		return err
	}
	if err := d.port.SendKeys(ctx, view, keysSendPictureToFile); err != nil {
		return err
	}
	if err := d.port.SaveFile(ctx, dialogSavePicture, target); err != nil {
		return err
	}
	return d.port.WaitQuiescent(ctx)
}

// fail marks the protocol failed and returns a logged, stage-tagged error.
func (d *Driver) fail(stage string, job domain.SpeakerJob, message string, tried []string, err error) error {
	d.state = StateFailed
	return d.protocolError(stage, job, message, tried, err)
}

// protocolError wraps an automation failure with job context.
func (d *Driver) protocolError(stage string, job domain.SpeakerJob, message string, tried []string, err error) error {
	perr := &ProtocolError{
		Stage:   stage,
		Speaker: job.SpeakerName,
		Message: message,
		Tried:   tried,
		Err:     err,
	}
	d.log.Errorf("Error extracting speaker data for %s (%s): %v", job.SpeakerName, job.GLLFile, perr)
	return perr
}

// expectedViewTitle guesses the vendor-formatted results view title. The
// format is not guaranteed; FindResultsView falls back to scanning all open
// windows when the guess misses.
func expectedViewTitle(job domain.SpeakerJob) string {
	return layout.Base(job.GLLFile) + " - EASE GLLViewer"
}
