// Package report renders completed analyses.
//
// This package contains writers for different output formats:
//   - SimpleWriter: "<token>: <count>" lines in rank order
//   - JSONWriter: analysis metadata and ranked entries for tool integration
//   - MarkdownWriter: summary tables and mermaid charts for sharing
//   - PlotWriter: the rank-frequency plot as mermaid xychart source
//   - ComparisonWriter: count changes between two analyses of a document
//
// Writers share the WithExclude and WithTop options. Excluded tokens are
// hidden from output only; the analysis itself is never modified. Writers
// refuse analyses that are not completed with ErrIncompleteAnalysis.
package report
