package domain

// Settings contains operator-configurable runtime configuration.
//
// Values come from the JSON settings file and can be overridden per field
// through GLL2TXT_* environment variables.
type Settings struct {
	EaseBinaryPath  string  `json:"easeBinaryPath" envconfig:"GLL2TXT_EASE_BINARY"`
	GLLDirectory    string  `json:"gllDirectory" envconfig:"GLL2TXT_GLL_DIR"`
	OutputDirectory string  `json:"outputDirectory" envconfig:"GLL2TXT_OUTPUT_DIR"`
	DatabasePath    string  `json:"databasePath" envconfig:"GLL2TXT_DATABASE"`
	MeridianStep    int     `json:"meridianStep" envconfig:"GLL2TXT_MERIDIAN_STEP"`
	ParallelStep    float64 `json:"parallelStep" envconfig:"GLL2TXT_PARALLEL_STEP"`
	LogLevel        string  `json:"logLevel" envconfig:"GLL2TXT_LOG_LEVEL"`
}

// SpeakerJob identifies one unit of extraction work. Jobs are built
// transiently by the batch coordinator; the speaker directory owns the
// persistent record they come from.
type SpeakerJob struct {
	GLLFile     string `json:"gllFile"`
	SpeakerName string `json:"speakerName"`
	ConfigFile  string `json:"configFile,omitempty"`
}

// SpeakerRecord is one row of the speaker directory: the metadata an
// operator associates with a GLL file.
type SpeakerRecord struct {
	GLLFile     string   `json:"gllFile"`
	SpeakerName string   `json:"speakerName"`
	ConfigFiles []string `json:"configFiles,omitempty"`
	Skip        bool     `json:"skip"`

	// Physical properties entered by the operator. Optional, not used by
	// the extraction protocol.
	Sensitivity *float64 `json:"sensitivity,omitempty"`
	Impedance   *float64 `json:"impedance,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
}

// OutcomeKind classifies how the coordinator disposed of one GLL file.
type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "success"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeDeferred OutcomeKind = "deferred"
)

// ProcessingOutcome is the per-job result reported after each file.
type ProcessingOutcome struct {
	Job    SpeakerJob  `json:"job"`
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// BatchResult summarizes one coordinator run over a GLL directory.
type BatchResult struct {
	Total           int                 `json:"total"`
	Completed       int                 `json:"completed"`
	MissingMetadata []string            `json:"missingMetadata,omitempty"`
	Outcomes        []ProcessingOutcome `json:"outcomes"`
	Stopped         bool                `json:"stopped"`
	OK              bool                `json:"ok"`
}
