package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/texfreq/internal/model"
	"golang.org/x/text/language"
)

// DefaultTop is the number of leading ranks shown in tables and plots.
const DefaultTop = 25

// ErrIncompleteAnalysis is returned when a writer is given an analysis that
// did not complete. Partial counts are never rendered.
var ErrIncompleteAnalysis = errors.New("analysis is not completed")

// Writer defines the interface for report output.
// Implementations write analysis results in various formats.
type Writer interface {
	// Write outputs the report for analysis.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *model.Analysis) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It is used to emit a report and a rank plot from one analysis.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analysis *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Option configures the writers of this package.
type Option func(*options)

// options are shared by every writer. Each writer uses the fields that apply
// to its format.
type options struct {
	// exclude holds tokens hidden from output. Counts are not changed.
	exclude map[string]struct{}

	// top is the rank window of tables and plots.
	top int

	// lang selects number formatting in Markdown.
	lang language.Tag

	// indent enables pretty-printed JSON.
	indent bool
}

// WithExclude hides tokens from the output. Tokens are matched after the
// same lowercasing the scanner applies.
func WithExclude(tokens ...string) Option {
	return func(o *options) {
		for _, token := range tokens {
			o.exclude[normalizeToken(token)] = struct{}{}
		}
	}
}

// WithTop sets the rank window. Values of zero or less keep the default.
func WithTop(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.top = n
		}
	}
}

// WithLanguage sets the language used to format numbers in Markdown.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
	}
}

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() Option {
	return func(o *options) {
		o.indent = true
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
	options
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer, opts []Option) baseWriter {
	w := baseWriter{
		output: output,
		options: options{
			exclude: make(map[string]struct{}),
			top:     DefaultTop,
			lang:    language.English,
		},
	}
	for _, opt := range opts {
		opt(&w.options)
	}
	return w
}

// check rejects analyses that must not be rendered.
func (w *baseWriter) check(analysis *model.Analysis) error {
	if analysis == nil {
		return fmt.Errorf("%w: nil analysis", ErrIncompleteAnalysis)
	}
	if !analysis.IsCompleted() {
		return fmt.Errorf("%w: %s is %s", ErrIncompleteAnalysis, analysis.Document, analysis.Status)
	}
	return nil
}

// entries returns the ranked entries of analysis without excluded tokens.
func (w *baseWriter) entries(analysis *model.Analysis) []model.Entry {
	ranked := analysis.Frequency.Ranked()
	if len(w.exclude) == 0 {
		return ranked
	}
	visible := ranked[:0]
	for _, e := range ranked {
		if _, hidden := w.exclude[e.Token]; !hidden {
			visible = append(visible, e)
		}
	}
	return visible
}

// window returns at most top leading entries.
func (w *baseWriter) window(entries []model.Entry) []model.Entry {
	if len(entries) > w.top {
		return entries[:w.top]
	}
	return entries
}
