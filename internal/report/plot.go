package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/texfreq/internal/model"
)

// ErrNothingToPlot is returned by PlotWriter when no token is left to plot.
var ErrNothingToPlot = errors.New("no tokens to plot")

// PlotWriter outputs the rank-frequency plot as mermaid xychart source.
// The x axis is the 0-based rank and the y axis is the count; tokens are
// not part of the plot. Only the leading ranks of the window are drawn.
type PlotWriter struct {
	baseWriter
}

// NewPlotWriter creates a PlotWriter that outputs to the given writer.
func NewPlotWriter(output io.Writer, opts ...Option) *PlotWriter {
	return &PlotWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the plot for analysis.
func (w *PlotWriter) Write(analysis *model.Analysis) (int, error) {
	if err := w.check(analysis); err != nil {
		return 0, err
	}

	counts := countsOf(w.window(w.entries(analysis)))
	if len(counts) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNothingToPlot, analysis.Document)
	}
	return io.WriteString(w.output, RankPlot(plotTitle(analysis.Document), counts))
}

// RankPlot renders counts, which must be in descending order, as a mermaid
// xychart. Element i is drawn at rank i.
func RankPlot(title string, counts []int) string {
	ranks := make([]string, len(counts))
	values := make([]string, len(counts))
	for i, c := range counts {
		ranks[i] = strconv.Itoa(i)
		values[i] = strconv.Itoa(c)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	fmt.Fprintf(&sb, "    title %q\n", title)
	fmt.Fprintf(&sb, "    x-axis \"rank\" [%s]\n", strings.Join(ranks, ", "))
	fmt.Fprintf(&sb, "    y-axis \"count\" 0 --> %d\n", max(slices.Max(append([]int{0}, counts...)), 1))
	fmt.Fprintf(&sb, "    line [%s]\n", strings.Join(values, ", "))
	return sb.String()
}

// plotTitle builds a chart title that mermaid accepts inside double quotes.
func plotTitle(document string) string {
	return "Rank-frequency: " + strings.ReplaceAll(document, `"`, "'")
}

// countsOf returns the counts of entries in order.
func countsOf(entries []model.Entry) []int {
	counts := make([]int, len(entries))
	for i, e := range entries {
		counts[i] = e.Count
	}
	return counts
}
