package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/texfreq/internal/model"
)

// ComparisonWriter outputs the count changes between two analyses of the
// same document, largest change first.
type ComparisonWriter struct {
	baseWriter

	// asJSON selects JSON output instead of text.
	asJSON bool
}

// NewComparisonWriter creates a ComparisonWriter. When asJSON is false the
// output is plain text.
func NewComparisonWriter(output io.Writer, asJSON bool, opts ...Option) *ComparisonWriter {
	return &ComparisonWriter{baseWriter: newBaseWriter(output, opts), asJSON: asJSON}
}

// jsonComparison is the serialized form of a comparison.
type jsonComparison struct {
	Document string        `json:"document"`
	Before   jsonSide      `json:"before"`
	After    jsonSide      `json:"after"`
	Changes  []model.Delta `json:"changes"`
	Total    int           `json:"total_changes"`
}

// jsonSide identifies one of the compared analyses.
type jsonSide struct {
	ID           int64     `json:"id"`
	DateAnalyzed time.Time `json:"date_analyzed"`
	TotalTokens  int       `json:"total_tokens"`
}

// Write outputs the changes from before to after.
func (w *ComparisonWriter) Write(before, after *model.Analysis) (int, error) {
	if err := w.check(before); err != nil {
		return 0, err
	}
	if err := w.check(after); err != nil {
		return 0, err
	}

	deltas := w.visibleDeltas(model.Compare(before.Frequency, after.Frequency))
	shown := deltas
	if len(shown) > w.top {
		shown = shown[:w.top]
	}

	if w.asJSON {
		return w.writeJSON(jsonComparison{
			Document: after.Document,
			Before:   side(before),
			After:    side(after),
			Changes:  shown,
			Total:    len(deltas),
		})
	}
	return io.WriteString(w.output, w.text(before, after, shown, len(deltas)))
}

func (w *ComparisonWriter) text(before, after *model.Analysis, shown []model.Delta, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document: %s\n", after.Document)
	fmt.Fprintf(&sb, "Before:   #%d %s (%d words)\n", before.ID, before.DateAnalyzed.Format(time.DateTime), before.Summary.TotalTokens)
	fmt.Fprintf(&sb, "After:    #%d %s (%d words)\n", after.ID, after.DateAnalyzed.Format(time.DateTime), after.Summary.TotalTokens)
	sb.WriteString("\n")

	if total == 0 {
		sb.WriteString("No changes.\n")
		return sb.String()
	}

	for _, d := range shown {
		fmt.Fprintf(&sb, "%+6d  %-24s %d -> %d%s\n", d.Change(), d.Token, d.Before, d.After, marker(d))
	}
	if rest := total - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "... %d more change(s)\n", rest)
	}
	return sb.String()
}

func (w *ComparisonWriter) writeJSON(v any) (int, error) {
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
		return 0, fmt.Errorf("failed to marshal comparison: %w", err)
	}
	return w.output.Write(append(data, '\n'))
}

// visibleDeltas drops excluded tokens.
func (w *ComparisonWriter) visibleDeltas(deltas []model.Delta) []model.Delta {
	visible := make([]model.Delta, 0, len(deltas))
	for _, d := range deltas {
		if _, hidden := w.exclude[d.Token]; !hidden {
			visible = append(visible, d)
		}
	}
	return visible
}

func side(a *model.Analysis) jsonSide {
	return jsonSide{ID: a.ID, DateAnalyzed: a.DateAnalyzed, TotalTokens: a.Summary.TotalTokens}
}

func marker(d model.Delta) string {
	switch {
	case d.IsNew():
		return "  (new)"
	case d.IsGone():
		return "  (gone)"
	default:
		return ""
	}
}
