package model

// AppConfig holds the batch settings. It is loaded from YAML and can be
// overridden from the command line.
type AppConfig struct {
	OutputDir      string          `yaml:"output_dir"`
	Templates      TemplatePaths   `yaml:"templates"`
	ReferentielDir string          `yaml:"referentiel_dir"` // empty = embedded tables
	Layout         LayoutSettings  `yaml:"layout"`
	Measure        MeasureSettings `yaml:"measure"`
	Store          StoreSettings   `yaml:"store"`
	Exports        ExportSettings  `yaml:"exports"`
	Logging        LoggingSettings `yaml:"logging"`
}

// TemplatePaths locates the template asset of each kind.
type TemplatePaths struct {
	Mattress string `yaml:"mattress"`
	BedFrame string `yaml:"bed_frame"`
}

// For returns the template path for the given kind.
func (t TemplatePaths) For(k Kind) string {
	if k == KindBedFrame {
		return t.BedFrame
	}
	return t.Mattress
}

// LayoutSettings tunes slot detection and presentation.
type LayoutSettings struct {
	// Small integers up to this value in key cells are template placeholders.
	PlaceholderThreshold int     `yaml:"placeholder_threshold"`
	SlotsPerFile         int     `yaml:"slots_per_file"`
	MinColumnWidth       float64 `yaml:"min_column_width"`
	ColumnWidthFactor    float64 `yaml:"column_width_factor"`
}

// MeasureSettings tunes derived measurement formatting.
type MeasureSettings struct {
	DecimalSeparator string  `yaml:"decimal_separator"`
	LiterieMaxDelta  float64 `yaml:"literie_max_delta"` // cm
}

// StoreSettings selects where output documents are kept.
type StoreSettings struct {
	Backend    string `yaml:"backend"` // "dir" or "sqlite"
	SQLitePath string `yaml:"sqlite_path"`
}

// ExportSettings toggles the side outputs written after a batch.
type ExportSettings struct {
	Labels     bool `yaml:"labels"`
	CoreCutDXF bool `yaml:"core_cut_dxf"`
	RecapPDF   bool `yaml:"recap_pdf"`
	Manifest   bool `yaml:"manifest"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultAppConfig returns the settings used when no config file exists.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		OutputDir: "output",
		Templates: TemplatePaths{
			Mattress: "templates/template_matelas.xlsx",
			BedFrame: "templates/template_sommier.xlsx",
		},
		Layout: LayoutSettings{
			PlaceholderThreshold: 20,
			SlotsPerFile:         10,
			MinColumnWidth:       12,
			ColumnWidthFactor:    1.3,
		},
		Measure: MeasureSettings{
			DecimalSeparator: ",",
			LiterieMaxDelta:  3,
		},
		Store: StoreSettings{
			Backend:    "dir",
			SQLitePath: "output/literie.db",
		},
		Exports: ExportSettings{
			Labels:     true,
			CoreCutDXF: true,
			RecapPDF:   true,
			Manifest:   true,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}
