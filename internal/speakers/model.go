package speakers

// Speaker is one GLL file's operator-entered metadata row.
type Speaker struct {
	GLLFile     string `gorm:"primaryKey;column:gll_file"`
	SpeakerName string `gorm:"column:speaker_name;not null"`
	Skip        bool   `gorm:"column:skip;default:false"`

	Sensitivity *float64 `gorm:"column:sensitivity"`
	Impedance   *float64 `gorm:"column:impedance"`
	Weight      *float64 `gorm:"column:weight"`
	Height      *float64 `gorm:"column:height"`
	Width       *float64 `gorm:"column:width"`
	Depth       *float64 `gorm:"column:depth"`

	ConfigFiles []ConfigFile `gorm:"foreignKey:GLLFile;references:GLLFile;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical table name.
func (Speaker) TableName() string { return "speakers" }

// ConfigFile is one configuration file associated with a speaker.
type ConfigFile struct {
	ID      uint   `gorm:"primaryKey"`
	GLLFile string `gorm:"column:gll_file;index;not null"`
	Path    string `gorm:"column:config_file;not null"`
}

// TableName keeps the historical table name.
func (ConfigFile) TableName() string { return "config_files" }
