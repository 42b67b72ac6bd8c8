package config

import "path/filepath"

// DocumentConfig holds per-document analysis settings.
type DocumentConfig struct {
	// Top overrides the plot window for this document.
	// If zero, the global value is used.
	Top int `yaml:"top,omitempty"`

	// Exclude lists tokens hidden from reports. Counting is not affected,
	// so stored history stays comparable.
	Exclude []string `yaml:"exclude,omitempty"`

	// BeginMarker overrides the document start marker line.
	BeginMarker string `yaml:"beginMarker,omitempty"`

	// EndMarker overrides the document end marker line.
	EndMarker string `yaml:"endMarker,omitempty"`
}

// File represents the structure of the .texfreq configuration file.
type File struct {
	// Documents maps document paths to their settings. Keys may be the
	// path as given on the command line or just the file name.
	Documents map[string]DocumentConfig `yaml:"documents,omitempty"`

	// Defaults apply to every document unless overridden.
	Defaults DocumentConfig `yaml:"defaults,omitempty"`
}

// GetDocumentConfig returns the configuration for document, merged over
// the defaults. The exact path is tried first, then its cleaned form, then
// the base file name.
func (cf *File) GetDocumentConfig(document string) DocumentConfig {
	result := cf.Defaults
	if len(result.Exclude) > 0 {
		result.Exclude = append([]string(nil), result.Exclude...)
	}

	override, ok := cf.lookup(document)
	if !ok {
		return result
	}

	if override.Top != 0 {
		result.Top = override.Top
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append(result.Exclude, override.Exclude...)
	}
	if override.BeginMarker != "" {
		result.BeginMarker = override.BeginMarker
	}
	if override.EndMarker != "" {
		result.EndMarker = override.EndMarker
	}

	return result
}

// lookup finds the entry for document.
func (cf *File) lookup(document string) (DocumentConfig, bool) {
	for _, key := range []string{document, filepath.Clean(document), filepath.Base(document)} {
		if dc, ok := cf.Documents[key]; ok {
			return dc, true
		}
	}
	return DocumentConfig{}, false
}
