// Package model defines the data structures shared across texfreq.
//
// This package contains the following main types:
//   - Frequency: the token to count mapping built by the scanner
//   - Entry: one ranked token and its count
//   - Analysis: the result of analyzing one document, completed or aborted
//   - Delta: the change of a token's count between two analyses
//
// Design decision: the models live in their own package so the scanner,
// pipeline, report and database packages can share them without import
// cycles. They serialize to JSON for report output and history storage.
package model
