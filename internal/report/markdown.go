package report

import (
	"io"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/texfreq/internal/model"
	"golang.org/x/text/message"
)

// pieSlices is the number of top tokens shown in the pie chart. The rest
// are summed into one slice.
const pieSlices = 8

// MarkdownWriter outputs reports in Markdown format for sharing and
// documentation. Numbers are formatted for the configured language.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, opts)}
}

// Write outputs the report for analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	if err := w.check(analysis); err != nil {
		return 0, err
	}

	p := message.NewPrinter(w.lang)
	entries := w.entries(analysis)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis)
	w.writeSummary(md, p, analysis)
	w.writeTopTokens(md, p, entries)
	w.writeCharts(md, analysis, entries)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the document information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, analysis *model.Analysis) {
	md.H1("Word Frequency Report")
	md.PlainText("")

	rows := [][]string{
		{"Document", "`" + analysis.Document + "`"},
		{"Analyzed", analysis.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
	}
	if analysis.Digest != "" {
		rows = append(rows, []string{"SHA3-256", "`" + shortDigest(analysis.Digest) + "`"})
	}
	if analysis.RunID != "" {
		rows = append(rows, []string{"Run", "`" + analysis.RunID + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the lexical statistics and scan counters.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, p *message.Printer, analysis *model.Analysis) {
	s := analysis.Summary
	st := analysis.Stats

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total words", p.Sprintf("%d", s.TotalTokens)},
			{"Distinct words", p.Sprintf("%d", s.DistinctTokens)},
			{"Words used once", p.Sprintf("%d", s.Hapax)},
			{"Type/token ratio", p.Sprintf("%.3f", s.TypeTokenRatio)},
			{"Lines read", p.Sprintf("%d", st.LinesRead)},
			{"Preamble lines", p.Sprintf("%d", st.PreambleLines)},
			{"Counted lines", p.Sprintf("%d", st.CountedLines)},
			{"Skipped lines", p.Sprintf("%d", st.SkippedLines)},
			{"Environments skipped", p.Sprintf("%d", st.EnvironmentsSkipped)},
		},
	})
	md.PlainText("")

	switch {
	case s.TotalTokens == 0:
		md.Warningf("No words were counted in %s. Check the document markers.", analysis.Document)
	case len(w.exclude) > 0:
		md.Notef("%d excluded token(s) are hidden from the tables and charts.", len(w.exclude))
	default:
		md.Tip("All counted words are shown.")
	}
	md.PlainText("")
}

// writeTopTokens writes the ranked table of the window.
func (w *MarkdownWriter) writeTopTokens(md *markdown.Markdown, p *message.Printer, entries []model.Entry) {
	md.H2("Top Words")
	md.PlainText("")

	top := w.window(entries)
	if len(top) == 0 {
		md.PlainText("No words to show.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(top))
	for i, e := range top {
		rows[i] = []string{p.Sprintf("%d", i+1), e.Token, p.Sprintf("%d", e.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if rest := len(entries) - len(top); rest > 0 {
		md.Details("More words", p.Sprintf("%d further word(s) are not listed.", rest))
		md.PlainText("")
	}
}

// writeCharts writes the pie chart of the leading words and the rank plot.
func (w *MarkdownWriter) writeCharts(md *markdown.Markdown, analysis *model.Analysis, entries []model.Entry) {
	if len(entries) == 0 {
		return
	}

	md.H2("Charts")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Most frequent words"),
		piechart.WithShowData(true),
	)
	var others uint64
	for i, e := range entries {
		if i < pieSlices {
			chart.LabelAndIntValue(e.Token, uint64(e.Count))
			continue
		}
		others += uint64(e.Count)
	}
	if others > 0 {
		chart.LabelAndIntValue("(others)", others)
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	md.CodeBlocks(markdown.SyntaxHighlightMermaid,
		RankPlot(plotTitle(analysis.Document), countsOf(w.window(entries))))
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [texfreq](https://github.com/nao1215/texfreq)*")
}

// shortDigest returns the first 16 hex characters of digest.
func shortDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:16]
}
