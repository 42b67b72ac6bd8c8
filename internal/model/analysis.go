package model

import "time"

// Status is the lifecycle state of an Analysis.
type Status string

const (
	// StatusPending means the document has not been scanned yet.
	StatusPending Status = "pending"

	// StatusCompleted means the scan reached the end-of-document marker
	// and the Frequency is final.
	StatusCompleted Status = "completed"

	// StatusAborted means the scan failed. Any counts collected before the
	// failure are not a valid result and must not be reported.
	StatusAborted Status = "aborted"
)

// ScanStats describes how the scanner walked a document.
type ScanStats struct {
	// LinesRead is the number of lines taken from the source, including
	// the preamble and both document markers.
	LinesRead int `json:"lines_read"`

	// PreambleLines is the number of lines before the start marker.
	PreambleLines int `json:"preamble_lines"`

	// CountedLines is the number of body lines that were tokenized.
	CountedLines int `json:"counted_lines"`

	// SkippedLines is the number of lines discarded inside environments,
	// including the open and close lines.
	SkippedLines int `json:"skipped_lines"`

	// EnvironmentsSkipped is the number of top-level environments skipped.
	EnvironmentsSkipped int `json:"environments_skipped"`
}

// Summary holds lexical statistics derived from a Frequency.
type Summary struct {
	TotalTokens    int     `json:"total_tokens"`
	DistinctTokens int     `json:"distinct_tokens"`
	Hapax          int     `json:"hapax"`
	TypeTokenRatio float64 `json:"type_token_ratio"`
}

// NewSummary computes the Summary of f.
func NewSummary(f Frequency) Summary {
	s := Summary{
		TotalTokens:    f.Total(),
		DistinctTokens: f.Distinct(),
		Hapax:          f.Hapax(),
	}
	if s.TotalTokens > 0 {
		s.TypeTokenRatio = float64(s.DistinctTokens) / float64(s.TotalTokens)
	}
	return s
}

// Analysis is the result of analyzing one document.
//
// An Analysis starts pending, and ends either completed, with a final
// Frequency, or aborted, with Error set. Report writers and the history
// store only accept completed analyses.
type Analysis struct {
	// ID is the history database identifier. Zero until stored.
	ID int64 `json:"id,omitempty"`

	// RunID groups the analyses produced by one command invocation.
	RunID string `json:"run_id,omitempty"`

	// Document is the path of the analyzed source file.
	Document string `json:"document"`

	// Digest is the hex SHA3-256 of the document content.
	Digest string `json:"digest,omitempty"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Error is the failure that aborted the analysis.
	Error error `json:"-"`

	// ErrorMessage is Error as text, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Stats describes the scan.
	Stats ScanStats `json:"stats"`

	// Summary holds lexical statistics.
	Summary Summary `json:"summary"`

	// Frequency is the token to count mapping.
	Frequency Frequency `json:"frequency"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewAnalysis creates a pending Analysis for document.
func NewAnalysis(document string) *Analysis {
	return &Analysis{
		Document:     document,
		DateAnalyzed: time.Now(),
		Status:       StatusPending,
		Frequency:    NewFrequency(),
	}
}

// Complete marks the analysis completed with its final counts.
func (a *Analysis) Complete(freq Frequency, stats ScanStats) {
	a.Frequency = freq
	a.Stats = stats
	a.Summary = NewSummary(freq)
	a.Status = StatusCompleted
	a.Error = nil
	a.ErrorMessage = ""
}

// Abort marks the analysis aborted. Counts gathered so far are discarded so
// a partial mapping can never be mistaken for a result.
func (a *Analysis) Abort(err error) {
	a.Status = StatusAborted
	a.Error = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
	a.Frequency = NewFrequency()
	a.Summary = Summary{}
}

// IsCompleted reports whether the analysis finished successfully.
func (a *Analysis) IsCompleted() bool {
	return a.Status == StatusCompleted
}
