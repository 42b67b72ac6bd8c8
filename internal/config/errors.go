package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrNoDocument is returned when no document path is given.
	ErrNoDocument = errors.New("no document specified: provide one or more .tex files")

	// ErrInvalidTopN is returned when the plot window is not positive.
	ErrInvalidTopN = errors.New("invalid top: must be positive")

	// ErrInvalidMaxLineSize is returned when the line size limit is not positive.
	ErrInvalidMaxLineSize = errors.New("invalid max line size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLanguage is returned when the report language is not a
	// valid BCP 47 tag.
	ErrInvalidLanguage = errors.New("invalid language tag")

	// ErrNoDBDir is returned when history saving is enabled without a
	// database directory.
	ErrNoDBDir = errors.New("no database directory: history saving needs a directory")
)
