package ease

import "strings"

// Window and control identifiers of the GLLViewer window tree. These are
// version-specific: a vendor UI update can rename any of them.
const (
	dialogOpenGLL     = "OpenGLLFile"
	dialogOpenConfig  = "OpenGLLConfigurationFile"
	dialogParameters  = "CalculationParameters"
	dialogExportData  = "Export Graph Data"
	dialogSavePicture = "Save Picture"

	comboMeridian   = "Meridian : ComboBox"
	comboParallel   = "Parallel : Combobox"
	comboResolution = "Resolution :ComboBox"
	comboDistance   = "Distance [m] :ComboBox"

	buttonAirAttenuation = "Enable Air Attenuation"
	buttonInputSignal    = "AES2 Broadband (Pink Noise)Button"
	buttonOK             = "&OKButton"
)

// Menu accelerators and view shortcuts.
const (
	keysConfigMenu       = "%fc"
	keysRefresh          = "{F5}"
	keysTransferFunction = "^+T"
	keysSensitivityView  = "^+S"
	keysMaxSPLView       = "^+M"
	keysSendTableToFile  = "%ftf"
	// The picture export has no shortcut; the File menu is walked by arrow
	// keys instead.
	keysSendPictureToFile = "%f{DOWN 7}{ENTER}{DOWN}{ENTER}"
)

// Fixed calculation parameters for every extraction.
const (
	resolutionLabel = "Intermediate (5°)"
	distanceLabel   = "10"
)

// cpuIdleThreshold is the CPU usage percentage below which the vendor
// process is considered done with its current computation.
const cpuIdleThreshold = 5.0

// EscapeKeys escapes characters that collide with the keystroke sequence
// syntax before they are typed into a dialog.
func EscapeKeys(s string) string {
	return strings.ReplaceAll(s, "+", "{+}")
}
