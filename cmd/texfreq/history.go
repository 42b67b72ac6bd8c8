package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/texfreq/internal/config"
	"github.com/nao1215/texfreq/internal/database"
	"github.com/nao1215/texfreq/internal/model"
	"github.com/nao1215/texfreq/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command compares stored analyses of a document.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [document.tex]",
		Short: "Compare stored analyses of a document",
		Long: `History shows how the word counts of a document changed between analyses.

Every successful 'texfreq analyze' run stores its counts in a local
database. By default the latest two analyses of the document are compared
and the words whose counts changed are listed, largest change first.

Examples:
  # Compare the latest two analyses
  texfreq history paper.tex

  # List all stored analyses of a document
  texfreq history --list paper.tex

  # Compare the latest analysis with a specific one
  texfreq history --with-id 5 paper.tex

  # Compare with the first analysis since a date
  texfreq history --since 2026-01-01 paper.tex

  # List all documents in the database
  texfreq history --list-documents`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the stored analyses of the document")
	cmd.Flags().BoolP("list-documents", "L", false,
		"List all documents in the database")

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the latest analysis with the analysis of this ID (see --list)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first analysis on or after this date (format: YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Maximum number of changed words to show")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions holds the flags of the history command.
type historyOptions struct {
	document      string
	list          bool
	listDocuments bool
	withID        int64
	since         string
	jsonOutput    bool
	top           int
	dbDir         string
}

// parseHistoryOptions reads the history flags.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	var err error

	if opts.list, err = cmd.Flags().GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listDocuments, err = cmd.Flags().GetBool("list-documents"); err != nil {
		return nil, err
	}
	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return nil, err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return nil, err
	}
	if opts.jsonOutput, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.top, err = cmd.Flags().GetInt("top"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		opts.document = args[0]
	}
	if !opts.listDocuments && opts.document == "" {
		return nil, errors.New("document is required (use --list-documents to see stored documents)")
	}
	if opts.withID != 0 && opts.since != "" {
		return nil, errors.New("--with-id and --since cannot be used together")
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Validate before opening the database.
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listDocuments:
		return listDocuments(ctx, db, out, opts.jsonOutput)
	case opts.list:
		return listHistory(ctx, db, out, opts.document, opts.jsonOutput)
	default:
		return runComparison(ctx, db, out, opts)
	}
}

// listDocuments lists all documents that have stored analyses.
func listDocuments(ctx context.Context, db *database.AnalysisDB, out io.Writer, jsonOutput bool) error {
	documents, err := db.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if jsonOutput {
		if documents == nil {
			documents = []string{}
		}
		return writeJSON(out, documents)
	}

	if len(documents) == 0 {
		fmt.Fprintln(out, "No analyzed documents found in the database.")
		fmt.Fprintln(out, "\nUse 'texfreq analyze <document.tex>' to analyze a document.")
		return nil
	}

	fmt.Fprintf(out, "Analyzed documents (%d):\n\n", len(documents))
	for _, document := range documents {
		fmt.Fprintf(out, "  • %s\n", document)
	}
	fmt.Fprintln(out, "\nUse 'texfreq history --list <document.tex>' to see the analyses of a document.")
	return nil
}

// listHistory lists the stored analyses of document.
func listHistory(ctx context.Context, db *database.AnalysisDB, out io.Writer, document string, jsonOutput bool) error {
	history, err := db.GetHistoryWithMetadata(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if jsonOutput {
		if history == nil {
			history = []database.AnalysisMetadata{}
		}
		return writeJSON(out, history)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", document)
		fmt.Fprintln(out, "\nUse 'texfreq analyze' to analyze this document.")
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d analyses):\n\n", database.DocumentKey(document), len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %8s  %8s  %s\n", "ID", "Date", "Words", "Distinct", "SHA3-256")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %8d  %8d  %s\n",
			meta.ID,
			meta.DateAnalyzed.Local().Format(time.DateTime),
			meta.TotalTokens,
			meta.DistinctTokens,
			shortDigest(meta.Digest),
		)
	}

	fmt.Fprintln(out, "\nUse 'texfreq history <document.tex>' to compare the latest two analyses.")
	fmt.Fprintln(out, "Use 'texfreq history --with-id <id> <document.tex>' to compare with a specific analysis.")
	return nil
}

// runComparison compares the latest analysis of the document with an
// earlier one chosen by the options.
func runComparison(ctx context.Context, db *database.AnalysisDB, out io.Writer, opts *historyOptions) error {
	previous, current, err := selectAnalyses(ctx, db, opts)
	if err != nil {
		return err
	}
	if previous.Document != current.Document {
		return fmt.Errorf("analysis %d belongs to %s, not %s", previous.ID, previous.Document, current.Document)
	}

	w := report.NewComparisonWriter(out, opts.jsonOutput, report.WithTop(opts.top), report.WithPrettyPrint())
	_, err = w.Write(previous, current)
	return err
}

// selectAnalyses loads the earlier analysis and the latest one. Without
// --with-id or --since the latest two analyses are compared.
func selectAnalyses(ctx context.Context, db *database.AnalysisDB, opts *historyOptions) (previous, current *model.Analysis, err error) {
	if opts.withID == 0 && opts.since == "" {
		latest, err := db.GetLatestAnalyses(ctx, opts.document, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get history: %w", err)
		}
		switch len(latest) {
		case 0:
			return nil, nil, fmt.Errorf("no history found for %s", opts.document)
		case 1:
			return nil, nil, fmt.Errorf("at least 2 analyses are required for comparison (found %d)", len(latest))
		}
		return latest[1], latest[0], nil
	}

	history, err := db.GetHistoryWithMetadata(ctx, opts.document)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("no history found for %s", opts.document)
	}

	previousID, err := selectPrevious(history, opts)
	if err != nil {
		return nil, nil, err
	}
	if current, err = loadAnalysis(ctx, db, history[0].ID); err != nil {
		return nil, nil, err
	}
	if previous, err = loadAnalysis(ctx, db, previousID); err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

// selectPrevious returns the ID named by --with-id, or the earliest
// analysis on or after --since. history is newest first.
func selectPrevious(history []database.AnalysisMetadata, opts *historyOptions) (int64, error) {
	if opts.withID != 0 {
		return opts.withID, nil
	}

	since, err := time.ParseInLocation(time.DateOnly, opts.since, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}
	// Oldest first, so the first match is the earliest on or after since.
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].DateAnalyzed.Before(since) {
			if i == 0 {
				return 0, fmt.Errorf("only one analysis found since %s; at least 2 are required for comparison", opts.since)
			}
			return history[i].ID, nil
		}
	}
	return 0, fmt.Errorf("no analyses found since %s", opts.since)
}

// loadAnalysis loads a stored analysis and fails when it does not exist.
func loadAnalysis(ctx context.Context, db *database.AnalysisDB, id int64) (*model.Analysis, error) {
	a, err := db.GetAnalysisByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %d: %w", id, err)
	}
	if a == nil {
		return nil, fmt.Errorf("analysis with ID %d not found", id)
	}
	return a, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// shortDigest returns the first 12 hex characters of digest.
func shortDigest(digest string) string {
	return digest[:min(len(digest), 12)]
}
