// Package pipeline runs the analysis of documents.
//
// A Pipeline executes Steps in order on one model.Analysis. The default
// pipeline scans the document, which completes the analysis, and then saves
// it to the history store. The first failing step aborts the analysis and
// no later step runs, so an aborted analysis is never saved.
//
// BatchProcessor runs one fresh pipeline per document, strictly one
// document at a time. Aggregate merges the counts of the completed
// analyses of a batch.
package pipeline
