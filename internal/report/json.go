package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/texfreq/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...Option) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output, opts)}
}

// jsonReport is the serialized form of a completed analysis. Entries are in
// rank order, which a JSON object could not preserve.
type jsonReport struct {
	ID           int64           `json:"id,omitempty"`
	RunID        string          `json:"run_id,omitempty"`
	Document     string          `json:"document"`
	Digest       string          `json:"digest,omitempty"`
	DateAnalyzed time.Time       `json:"date_analyzed"`
	Stats        model.ScanStats `json:"stats"`
	Summary      model.Summary   `json:"summary"`
	Entries      []model.Entry   `json:"entries"`
}

// Write outputs the analysis metadata and the ranked entries.
func (w *JSONWriter) Write(analysis *model.Analysis) (int, error) {
	if err := w.check(analysis); err != nil {
		return 0, err
	}

	entries := w.entries(analysis)
	if entries == nil {
		entries = []model.Entry{}
	}
	return w.writeJSON(jsonReport{
		ID:           analysis.ID,
		RunID:        analysis.RunID,
		Document:     analysis.Document,
		Digest:       analysis.Digest,
		DateAnalyzed: analysis.DateAnalyzed,
		Stats:        analysis.Stats,
		Summary:      analysis.Summary,
		Entries:      entries,
	})
}

// writeJSON encodes v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
