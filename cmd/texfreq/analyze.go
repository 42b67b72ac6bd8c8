package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/nao1215/texfreq/internal/config"
	"github.com/nao1215/texfreq/internal/database"
	texlog "github.com/nao1215/texfreq/internal/log"
	"github.com/nao1215/texfreq/internal/model"
	"github.com/nao1215/texfreq/internal/pipeline"
	"github.com/nao1215/texfreq/internal/report"
	"github.com/nao1215/texfreq/internal/scanner"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <document.tex>...",
		Short: "Count the words of LaTeX documents",
		Long: `Analyze counts how often each word occurs in the body of LaTeX documents.

Only the lines between \begin{document} and \end{document} are counted.
Comments, inline math ($...$), commands and block environments
(\begin{...} ... \end{...}, nested or not) are skipped. Words are
lowercased before counting.

A document without both markers, or with an environment that is never
closed, is reported as an error and produces no report. The other
documents are still analyzed.

Examples:
  # Print "<word>: <count>" lines, most frequent first
  texfreq analyze paper.tex

  # Markdown report with charts, written to a file
  texfreq analyze --markdown -o report.md paper.tex

  # Rank-frequency plot of the top 40 words as a mermaid chart
  texfreq analyze --plot plot.mmd --top 40 paper.tex

  # Several chapters plus one merged report
  texfreq analyze --aggregate chapters/*.tex

  # One compact JSON object per line, one line per document
  texfreq analyze --json chapters/*.tex

Configuration file (.texfreq) example:
  defaults:
    exclude: [the, a, of]
  documents:
    abstract.tex:
      beginMarker: "\\begin{abstract}"
      endMarker: "\\end{abstract}"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Number of leading ranks in the plot and the Markdown top table")
	cmd.Flags().Int("max-line-size", config.DefaultMaxLineSize,
		"Longest accepted source line in bytes")
	cmd.Flags().String("lang", config.DefaultLanguage,
		"Language tag (BCP 47) for number formatting in Markdown reports")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .texfreq in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringP("plot", "p", "",
		"Write the rank-frequency plot as a mermaid chart to this file")
	cmd.Flags().BoolP("aggregate", "a", false,
		"Also report the merged counts of all documents")

	cmd.Flags().Bool("no-save", false,
		"Do not store the results in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// newLogger creates the logger selected by the configuration.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return texlog.NewJSONLogger(w, cfg.Verbose)
	}
	return texlog.NewLogger(w, cfg.Verbose)
}

// getBoolFlag retrieves a boolean flag from the command or the root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	var err error
	if cfg.TopN, err = cmd.Flags().GetInt("top"); err != nil {
		return nil, err
	}
	cfg.TopSet = cmd.Flags().Changed("top")
	if cfg.MaxLineSize, err = cmd.Flags().GetInt("max-line-size"); err != nil {
		return nil, err
	}
	if cfg.Language, err = cmd.Flags().GetString("lang"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.PlotFile, err = cmd.Flags().GetString("plot"); err != nil {
		return nil, err
	}
	if cfg.Aggregate, err = cmd.Flags().GetBool("aggregate"); err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}

	// An explicit config path must exist; a missing default file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.DocumentConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Documents = args
	return cfg, nil
}

// runAnalyze analyzes every document of cfg in order and writes the
// reports. Failed documents are reported on stderr and returned joined
// once all documents have been processed.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (err error) {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	logger.Debug("starting analysis",
		"documents", len(cfg.Documents),
		"saveToDB", cfg.SaveToDB,
	)

	lang, err := cfg.LanguageTag()
	if err != nil {
		return err
	}

	var db *database.AnalysisDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	out, closeOut, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close report file: %w", cerr))
		}
	}()

	e := &emitter{
		cfg:    cfg,
		out:    out,
		lang:   lang,
		pretty: len(cfg.Documents) == 1,
		logger: logger,
	}
	plots, aggregatePlot := plotPaths(cfg.PlotFile, cfg.Documents, cfg.Aggregate)

	bp := pipeline.NewBatchProcessor(
		func(document string) *pipeline.Pipeline {
			return createPipelineForDocument(cfg, cfg.DocumentConfig(document), db, logger)
		},
		pipeline.WithRunID(runID),
		pipeline.WithBatchLogger(logger),
	)

	var (
		failures  []error
		completed []*model.Analysis
	)
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Documents, func(a *model.Analysis, i int) {
		if !a.IsCompleted() {
			fmt.Fprintf(stderr, "texfreq: %s: %v\n", a.Document, a.Error)
			failures = append(failures, fmt.Errorf("%s: %w", a.Document, a.Error))
			return
		}
		completed = append(completed, a)

		fmt.Fprintf(stderr, "Analyzed %s: %d words, %d distinct\n",
			a.Document, a.Summary.TotalTokens, a.Summary.DistinctTokens)

		if err := e.emit(a, cfg.DocumentConfig(a.Document), plots[i]); err != nil {
			logger.Error("report failed", "document", a.Document, "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", a.Document, err))
		}
	})

	if cfg.Aggregate && len(completed) > 1 {
		aggregate := pipeline.AggregateAnalysis(completed)
		fmt.Fprintf(stderr, "Aggregated %d documents: %d words, %d distinct\n",
			len(completed), aggregate.Summary.TotalTokens, aggregate.Summary.DistinctTokens)
		if err := e.emit(aggregate, cfg.DocumentConfig(""), aggregatePlot); err != nil {
			failures = append(failures, fmt.Errorf("aggregate: %w", err))
		}
	}

	if batchErr != nil && !errors.Is(batchErr, context.Canceled) {
		failures = append(failures, batchErr)
	}
	return errors.Join(failures...)
}

// createPipelineForDocument creates the pipeline for one document.
func createPipelineForDocument(cfg *config.Config, dc config.DocumentConfig, db *database.AnalysisDB, logger *slog.Logger) *pipeline.Pipeline {
	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxLineSize(cfg.MaxLineSize),
		pipeline.WithPipelineMarkers(scanner.Markers{Begin: dc.BeginMarker, End: dc.EndMarker}),
	}
	if db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineStore(db))
	}
	return pipeline.DefaultPipeline([]pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)
}

// emitter writes the reports and plots of one analyze run.
type emitter struct {
	cfg *config.Config

	// out receives every report of the run.
	out io.Writer

	// lang formats numbers in Markdown.
	lang language.Tag

	// pretty indents JSON. With several reports in one stream each report
	// is written as one compact line instead.
	pretty bool

	logger *slog.Logger
}

// emit writes the report of a completed analysis and, when plotFile is
// set, its rank plot.
func (e *emitter) emit(a *model.Analysis, dc config.DocumentConfig, plotFile string) error {
	opts := []report.Option{
		report.WithExclude(dc.Exclude...),
		report.WithTop(dc.Top),
		report.WithLanguage(e.lang),
	}

	if _, err := e.reportWriter(opts).Write(a); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if plotFile == "" {
		return nil
	}

	// Render first so nothing is created or truncated when there is
	// nothing to plot.
	var buf bytes.Buffer
	if _, err := report.NewPlotWriter(&buf, opts...).Write(a); err != nil {
		if errors.Is(err, report.ErrNothingToPlot) {
			e.logger.Warn("rank plot skipped", "document", a.Document, "plot", plotFile, "reason", err)
			return nil
		}
		return err
	}
	return writeOutput(plotFile, buf.Bytes())
}

// reportWriter returns the writer for the configured report format.
func (e *emitter) reportWriter(opts []report.Option) report.Writer {
	switch {
	case e.cfg.JSONReport:
		if e.pretty {
			opts = append(opts, report.WithPrettyPrint())
		}
		return report.NewJSONWriter(e.out, opts...)
	case e.cfg.MarkdownReport:
		return report.NewMarkdownWriter(e.out, opts...)
	default:
		return report.NewSimpleWriter(e.out, opts...)
	}
}

// aggregatePlotName is the plot suffix of the merged counts.
const aggregatePlotName = "aggregate"

// plotPaths returns the plot file of every document and of the aggregate.
// With one document the plot file is used as is. With several, the
// document name is inserted before the extension, and a position number is
// added when two documents share a name, so no plot overwrites another.
func plotPaths(plotFile string, documents []string, aggregate bool) ([]string, string) {
	paths := make([]string, len(documents))
	if plotFile == "" {
		return paths, ""
	}
	if len(documents) == 1 {
		paths[0] = plotFile
		return paths, ""
	}

	ext := filepath.Ext(plotFile)
	stem := strings.TrimSuffix(plotFile, ext)
	used := make(map[string]bool)

	aggregatePath := ""
	if aggregate {
		aggregatePath = stem + "-" + aggregatePlotName + ext
		used[aggregatePath] = true
	}

	for i, document := range documents {
		name := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
		path := stem + "-" + name + ext
		if used[path] {
			path = fmt.Sprintf("%s-%s-%d%s", stem, name, i+1, ext)
		}
		used[path] = true
		paths[i] = path
	}
	return paths, aggregatePath
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// openOutput opens path for writing, creating parent directories. An empty
// path selects fallback. The returned function closes the file and reports
// write errors that surface on close.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	if err := ensureDir(path); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
