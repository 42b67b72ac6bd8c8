package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"

	"github.com/nao1215/texfreq/internal/scanner"
)

// Default configuration values.
const (
	// DefaultTopN is the number of leading ranks shown in the rank plot and
	// in the Markdown top table. Beyond about 25 entries the long tail of
	// single occurrences flattens the chart.
	DefaultTopN = 25

	// DefaultMaxLineSize is the longest source line accepted, in bytes.
	DefaultMaxLineSize = scanner.DefaultMaxLineSize

	// DefaultLanguage is the BCP 47 tag used to format numbers in reports.
	DefaultLanguage = "en"

	// AppName is the application name used for XDG directory paths.
	AppName = "texfreq"
)

// Config holds all configuration options for texfreq.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
type Config struct {
	// Documents is the list of LaTeX files to analyze.
	Documents []string

	// TopN is the number of leading ranks drawn in the rank plot and listed
	// in the Markdown top table. The plain text report always lists every
	// token.
	TopN int

	// TopSet records that TopN was given explicitly. An explicit value wins
	// over the defaults of the configuration file but not over a document
	// entry.
	TopSet bool

	// MaxLineSize is the longest line, in bytes, the scanner accepts.
	MaxLineSize int

	// Language is the BCP 47 tag used to format numbers in reports.
	Language string

	// LogJSON selects JSON log records instead of text.
	LogJSON bool

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the report destination. Empty means stdout.
	ReportFile string

	// PlotFile, when set, receives the rank-frequency plot as a mermaid chart.
	PlotFile string

	// Aggregate also emits one report for the merged counts of all
	// completed documents.
	Aggregate bool

	// ConfigFilePath is the configuration file path. If empty the file is
	// searched for in the current directory, the home directory and the
	// XDG config directory.
	ConfigFilePath string

	// DocumentConfigs holds per-document settings from the configuration file.
	DocumentConfigs *File

	// DBDir is the directory of the analysis history database.
	DBDir string

	// SaveToDB stores completed analyses in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TopN:        DefaultTopN,
		MaxLineSize: DefaultMaxLineSize,
		Language:    DefaultLanguage,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
		DocumentConfigs: &File{
			Documents: make(map[string]DocumentConfig),
		},
	}
}

// XDGDataDir returns the XDG data directory for texfreq.
// On Linux: ~/.local/share/texfreq
// On macOS: ~/Library/Application Support/texfreq
// On Windows: %LOCALAPPDATA%\texfreq
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for texfreq.
// On Linux: ~/.config/texfreq
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Documents) == 0 {
		return ErrNoDocument
	}

	if c.TopN <= 0 {
		return ErrInvalidTopN
	}

	if c.MaxLineSize <= 0 {
		return ErrInvalidMaxLineSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if _, err := c.LanguageTag(); err != nil {
		return err
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}

// DocumentConfig returns the effective settings for document: the file
// defaults merged with its document entry. The window comes from the
// document entry if it sets one, then from an explicit TopN, then from the
// file defaults, and finally from TopN.
func (c *Config) DocumentConfig(document string) DocumentConfig {
	var (
		dc     DocumentConfig
		docTop int
	)
	if c.DocumentConfigs != nil {
		dc = c.DocumentConfigs.GetDocumentConfig(document)
		if entry, ok := c.DocumentConfigs.lookup(document); ok {
			docTop = entry.Top
		}
	}

	switch {
	case docTop > 0:
		dc.Top = docTop
	case c.TopSet || dc.Top <= 0:
		dc.Top = c.TopN
	}
	return dc
}

// LanguageTag parses Language. An empty Language selects DefaultLanguage.
func (c *Config) LanguageTag() (language.Tag, error) {
	lang := c.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, lang, err)
	}
	return tag, nil
}
