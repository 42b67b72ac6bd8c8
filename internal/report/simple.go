package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/texfreq/internal/model"
)

// SimpleWriter outputs the ranked frequency list as "<token>: <count>"
// lines and nothing else, so the output can be piped to other tools.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// The rank window does not apply; every visible token is listed.
func NewSimpleWriter(output io.Writer, opts ...Option) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs one line per token in rank order.
func (w *SimpleWriter) Write(analysis *model.Analysis) (int, error) {
	if err := w.check(analysis); err != nil {
		return 0, err
	}

	var sb strings.Builder
	for _, e := range w.entries(analysis) {
		sb.WriteString(e.Token)
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(e.Count))
		sb.WriteByte('\n')
	}
	return io.WriteString(w.output, sb.String())
}
