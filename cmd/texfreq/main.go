// Package main provides the entry point for the texfreq CLI.
//
// texfreq counts the words of LaTeX documents. Comments, inline math,
// commands, block environments and the preamble are skipped, so the counts
// reflect the prose only.
//
// Usage:
//
//	texfreq analyze paper.tex
//	texfreq analyze --markdown -o report.md chapters/*.tex
//	texfreq history paper.tex
//
// See --help for all available options.
package main

// main is the entry point for texfreq.
func main() {
	Execute()
}
