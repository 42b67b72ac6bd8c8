package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/texfreq/internal/model"
	"github.com/nao1215/texfreq/internal/scanner"
	"golang.org/x/crypto/sha3"
)

// ScanStep reads the document, runs the scanner over it and completes the
// analysis with the resulting counts. The SHA3-256 digest of the whole file
// is computed in the same read.
type ScanStep struct {
	// maxLineSize is the longest accepted source line in bytes.
	maxLineSize int

	// markers delimit the counted body.
	markers scanner.Markers

	// logger for structured logging.
	logger *slog.Logger
}

// ScanStepOption configures a ScanStep.
type ScanStepOption func(*ScanStep)

// WithMaxLineSize sets the longest accepted source line.
func WithMaxLineSize(size int) ScanStepOption {
	return func(s *ScanStep) {
		if size > 0 {
			s.maxLineSize = size
		}
	}
}

// WithMarkers sets the document markers. Empty fields keep the defaults.
func WithMarkers(m scanner.Markers) ScanStepOption {
	return func(s *ScanStep) {
		s.markers = m
	}
}

// WithScanLogger sets a custom logger for the scan step.
func WithScanLogger(logger *slog.Logger) ScanStepOption {
	return func(s *ScanStep) {
		s.logger = logger
	}
}

// NewScanStep creates a new scanning step.
func NewScanStep(opts ...ScanStepOption) *ScanStep {
	s := &ScanStep{
		maxLineSize: scanner.DefaultMaxLineSize,
		markers:     scanner.DefaultMarkers(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan"
}

// Do executes the scan step.
func (s *ScanStep) Do(_ context.Context, analysis *model.Analysis) error {
	f, err := os.Open(analysis.Document)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	hash := sha3.New256()
	src := io.TeeReader(f, hash)

	session := scanner.NewSession(
		scanner.NewReaderSource(src, s.maxLineSize),
		scanner.WithMarkers(s.markers),
		scanner.WithLogger(s.logger.With("document", analysis.Document)),
	)
	freq, stats, err := session.Scan()
	if err != nil {
		return err
	}

	// Lines after the end marker are not scanned but belong to the digest.
	if _, err := io.Copy(io.Discard, src); err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	analysis.Digest = hex.EncodeToString(hash.Sum(nil))
	analysis.Complete(freq, stats)

	s.logger.Debug("document scanned",
		"document", analysis.Document,
		"lines", session.Line(),
		"tokens", analysis.Summary.TotalTokens,
		"distinct", analysis.Summary.DistinctTokens,
	)
	return nil
}

// Store persists completed analyses.
type Store interface {
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error
}

// SaveStep stores the analysis in the history database.
type SaveStep struct {
	store  Store
	logger *slog.Logger
}

// NewSaveStep creates a step that saves analyses to store.
func NewSaveStep(store Store, logger *slog.Logger) *SaveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do saves a completed analysis. Analyses in any other state are an error,
// which keeps aborted results out of the history.
func (s *SaveStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if !analysis.IsCompleted() {
		return fmt.Errorf("cannot save %s analysis of %s", analysis.Status, analysis.Document)
	}
	if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	s.logger.Debug("analysis saved", "document", analysis.Document, "id", analysis.ID)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxLineSize is the longest accepted source line in bytes.
	MaxLineSize int

	// Markers delimit the counted body.
	Markers scanner.Markers

	// Store receives completed analyses. Nil disables saving.
	Store Store
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxLineSize sets the line size limit.
func WithPipelineMaxLineSize(size int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxLineSize = size
	}
}

// WithPipelineMarkers sets the document markers.
func WithPipelineMarkers(m scanner.Markers) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Markers = m
	}
}

// WithPipelineStore enables saving to store.
func WithPipelineStore(store Store) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// DefaultPipeline creates the pipeline used for one document: scan, then
// save when a store is configured.
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxLineSize: scanner.DefaultMaxLineSize,
		Markers:     scanner.DefaultMarkers(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewScanStep(
		WithMaxLineSize(cfg.MaxLineSize),
		WithMarkers(cfg.Markers),
		WithScanLogger(p.logger),
	))
	if cfg.Store != nil {
		p.AddStep(NewSaveStep(cfg.Store, p.logger))
	}

	return p
}
