package ease

import "fmt"

// State tracks the driver's position in the export protocol for one job.
type State string

const (
	StateDisconnected         State = "disconnected"
	StateLaunching            State = "launching"
	StateGLLLoaded            State = "gll-loaded"
	StateConfigLoaded         State = "config-loaded"
	StateParametersSet        State = "parameters-set"
	StateExportingGrid        State = "exporting-grid"
	StateExportingSensitivity State = "exporting-sensitivity"
	StateExportingMaxSPL      State = "exporting-maxspl"
	StateArchiving            State = "archiving"
	StateClosed               State = "closed"
	StateFailed               State = "failed"
)

// transition applies one protocol step, rejecting out-of-order edges. An
// invalid transition is a driver bug, not a vendor-application failure.
func (d *Driver) transition(to State) error {
	if !isValidTransition(d.state, to) {
		return fmt.Errorf("invalid protocol transition: %s -> %s", d.state, to)
	}
	d.state = to
	return nil
}

// isValidTransition enforces the protocol state machine edges. Config
// loading is optional, so GLL loading may feed parameters directly; any
// active state may fail.
func isValidTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateDisconnected && from != StateClosed
	}

	switch from {
	case StateDisconnected:
		return to == StateLaunching
	case StateLaunching:
		return to == StateGLLLoaded
	case StateGLLLoaded:
		return to == StateConfigLoaded || to == StateParametersSet
	case StateConfigLoaded:
		return to == StateParametersSet
	case StateParametersSet:
		return to == StateExportingGrid
	case StateExportingGrid:
		return to == StateExportingSensitivity
	case StateExportingSensitivity:
		return to == StateExportingMaxSPL
	case StateExportingMaxSPL:
		return to == StateArchiving
	case StateArchiving:
		return to == StateClosed
	case StateClosed, StateFailed:
		return to == StateLaunching
	default:
		return false
	}
}
