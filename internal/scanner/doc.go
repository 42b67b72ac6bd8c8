// Package scanner walks a LaTeX document line by line and decides which
// lines are prose to be counted and which are structure to be skipped.
//
// A ScanSession is a small state machine:
//
//	Preamble --start marker--> Scanning --end marker--> Done
//	                              |  ^
//	               \begin line    v  |  depth back to 0
//	                          InEnvironment
//
// Lines before `\begin{document}` are discarded, environments are skipped
// as opaque blocks however deeply they nest, and every other body line goes
// through the latex package pipeline before its tokens are recorded.
// Nothing after `\end{document}` is read.
//
// A scan either reaches Done and returns the final Frequency, or fails
// with a *ScanError that wraps ErrMissingDocumentBoundary,
// ErrUnterminatedEnvironment or the underlying read error. A failed scan
// never returns counts.
//
// Sessions own their cursor and their Frequency; there is no package-level
// state. Tests feed a session from an in-memory LineSource.
package scanner
