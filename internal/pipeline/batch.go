package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/texfreq/internal/model"
)

// BatchProcessor analyzes several documents one after another. Every
// document gets a fresh pipeline and its own Frequency.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for one document.
	pipelineFactory func(document string) *Pipeline

	// runID is stamped on every analysis of the batch.
	runID string

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithRunID sets the run ID stamped on every analysis.
func WithRunID(id string) BatchOption {
	return func(b *BatchProcessor) {
		b.runID = id
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// pipelineFactory is called once per document, so per-document settings
// such as markers can differ within one batch.
func NewBatchProcessor(pipelineFactory func(document string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch analyzes documents in order and returns one analysis per
// document, aborted ones included. A failed document does not stop the
// batch; only cancellation does, in which case the remaining documents are
// returned as aborted.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, documents []string) ([]*model.Analysis, error) {
	results := make([]*model.Analysis, 0, len(documents))
	err := bp.ProcessBatchWithCallback(ctx, documents, func(a *model.Analysis, _ int) {
		results = append(results, a)
	})
	return results, err
}

// ProcessBatchWithCallback analyzes documents in order and calls callback
// with each analysis as soon as it is finished.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	documents []string,
	callback func(analysis *model.Analysis, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total_documents", len(documents),
		"run_id", bp.runID,
	)
	startTime := time.Now()

	for i, document := range documents {
		analysis := model.NewAnalysis(document)
		analysis.RunID = bp.runID

		if err := ctx.Err(); err != nil {
			analysis.Abort(fmt.Errorf("batch cancelled: %w", err))
			callback(analysis, i)
			continue
		}

		bp.logger.Debug("analyzing document",
			"document", document,
			"index", i+1,
			"total", len(documents),
		)

		if err := bp.pipelineFactory(document).Execute(ctx, analysis); err != nil {
			bp.logger.Warn("analysis aborted",
				"document", document,
				"error", err,
			)
		}
		callback(analysis, i)
	}

	bp.logger.Debug("batch processing complete",
		"total_documents", len(documents),
		"elapsed", time.Since(startTime),
	)
	return ctx.Err()
}

// Aggregate merges the frequencies of the completed analyses. Aborted
// analyses are skipped. The result does not depend on the order of
// analyses.
func Aggregate(analyses []*model.Analysis) model.Frequency {
	total := model.NewFrequency()
	for _, a := range analyses {
		if a != nil && a.IsCompleted() {
			total.Merge(a.Frequency)
		}
	}
	return total
}

// AggregateAnalysis builds a completed analysis over all completed analyses
// so the merged counts can be rendered by any report writer. It returns nil
// when no analysis completed.
func AggregateAnalysis(analyses []*model.Analysis) *model.Analysis {
	var (
		stats     model.ScanStats
		completed int
		runID     string
	)
	for _, a := range analyses {
		if a == nil || !a.IsCompleted() {
			continue
		}
		completed++
		runID = a.RunID
		stats.LinesRead += a.Stats.LinesRead
		stats.PreambleLines += a.Stats.PreambleLines
		stats.CountedLines += a.Stats.CountedLines
		stats.SkippedLines += a.Stats.SkippedLines
		stats.EnvironmentsSkipped += a.Stats.EnvironmentsSkipped
	}
	if completed == 0 {
		return nil
	}

	aggregate := model.NewAnalysis(fmt.Sprintf("aggregate of %d documents", completed))
	aggregate.RunID = runID
	aggregate.Complete(Aggregate(analyses), stats)
	return aggregate
}
