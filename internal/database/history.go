package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/texfreq/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "texfreq.db"

// ErrNotCompleted is returned when saving an analysis that did not complete.
var ErrNotCompleted = errors.New("only completed analyses can be saved")

// AnalysisDB provides SQLite-based storage for the analysis history.
// Each saved analysis keeps its full token counts so that any two analyses
// of a document can be compared later.
type AnalysisDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AnalysisDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AnalysisDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AnalysisDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite: mode=rw refuses to create the file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AnalysisDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AnalysisDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AnalysisDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *AnalysisDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		document TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		analyzed_at TEXT NOT NULL,
		total_tokens INTEGER NOT NULL,
		distinct_tokens INTEGER NOT NULL,
		stats_json TEXT NOT NULL,
		steps_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_document ON analyses(document, analyzed_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_run ON analyses(run_id);

	CREATE TABLE IF NOT EXISTS tokens (
		analysis_id INTEGER NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (analysis_id, token)
	);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// DocumentKey returns the form under which a document path is stored:
// absolute and cleaned, so that the same file is found from any directory.
func DocumentKey(document string) string {
	abs, err := filepath.Abs(document)
	if err != nil {
		return filepath.Clean(document)
	}
	return abs
}

// SaveAnalysis stores a completed analysis and its token counts in one
// transaction, and sets analysis.ID.
func (adb *AnalysisDB) SaveAnalysis(ctx context.Context, analysis *model.Analysis) (err error) {
	if !analysis.IsCompleted() {
		return fmt.Errorf("%w: %s is %s", ErrNotCompleted, analysis.Document, analysis.Status)
	}

	statsJSON, err := json.Marshal(analysis.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}
	stepsJSON, err := json.Marshal(analysis.PerformedSteps)
	if err != nil {
		return fmt.Errorf("failed to serialize steps: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO analyses (run_id, document, digest, analyzed_at, total_tokens, distinct_tokens, stats_json, steps_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		analysis.RunID,
		DocumentKey(analysis.Document),
		analysis.Digest,
		formatTimestamp(analysis.DateAnalyzed),
		analysis.Summary.TotalTokens,
		analysis.Summary.DistinctTokens,
		string(statsJSON),
		string(stepsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get analysis id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tokens (analysis_id, token, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare token insert: %w", err)
	}
	defer stmt.Close()

	for token, count := range analysis.Frequency {
		if _, err = stmt.ExecContext(ctx, id, token, count); err != nil {
			return fmt.Errorf("failed to insert token %q: %w", token, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}

	analysis.ID = id
	return nil
}

// ListDocuments returns every document with at least one stored analysis.
func (adb *AnalysisDB) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT document FROM analyses ORDER BY document`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []string
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, document)
	}

	return documents, rows.Err()
}

// AnalysisMetadata is a lightweight view of a stored analysis for listing.
type AnalysisMetadata struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id,omitempty"`
	Document       string    `json:"document"`
	Digest         string    `json:"digest,omitempty"`
	DateAnalyzed   time.Time `json:"date_analyzed"`
	TotalTokens    int       `json:"total_tokens"`
	DistinctTokens int       `json:"distinct_tokens"`
}

// GetHistoryWithMetadata returns the stored analyses of document, newest
// first, without their token counts.
func (adb *AnalysisDB) GetHistoryWithMetadata(ctx context.Context, document string) ([]AnalysisMetadata, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT id, run_id, document, digest, analyzed_at, total_tokens, distinct_tokens
	FROM analyses
	WHERE document = ?
	ORDER BY analyzed_at DESC, id DESC
	`, DocumentKey(document))
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis history: %w", err)
	}
	defer rows.Close()

	var results []AnalysisMetadata
	for rows.Next() {
		var (
			meta      AnalysisMetadata
			timestamp string
		)
		if err := rows.Scan(
			&meta.ID,
			&meta.RunID,
			&meta.Document,
			&meta.Digest,
			&timestamp,
			&meta.TotalTokens,
			&meta.DistinctTokens,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis metadata: %w", err)
		}
		meta.DateAnalyzed = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetAnalysisByID retrieves a stored analysis with its token counts.
// It returns nil and no error when the ID does not exist.
func (adb *AnalysisDB) GetAnalysisByID(ctx context.Context, id int64) (*model.Analysis, error) {
	var (
		analysis  model.Analysis
		timestamp string
		statsJSON string
		stepsJSON string
	)
	err := adb.db.QueryRowContext(ctx, `
	SELECT id, run_id, document, digest, analyzed_at, stats_json, steps_json
	FROM analyses
	WHERE id = ?
	`, id).Scan(
		&analysis.ID,
		&analysis.RunID,
		&analysis.Document,
		&analysis.Digest,
		&timestamp,
		&statsJSON,
		&stepsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var stats model.ScanStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &analysis.PerformedSteps); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}

	freq, err := adb.tokens(ctx, analysis.ID)
	if err != nil {
		return nil, err
	}

	analysis.DateAnalyzed = parseTimestamp(timestamp)
	analysis.Complete(freq, stats)
	return &analysis, nil
}

// GetLatestAnalyses returns up to limit analyses of document with their
// token counts, newest first.
func (adb *AnalysisDB) GetLatestAnalyses(ctx context.Context, document string, limit int) ([]*model.Analysis, error) {
	history, err := adb.GetHistoryWithMetadata(ctx, document)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}

	analyses := make([]*model.Analysis, 0, len(history))
	for _, meta := range history {
		a, err := adb.GetAnalysisByID(ctx, meta.ID)
		if err != nil {
			return nil, err
		}
		if a != nil {
			analyses = append(analyses, a)
		}
	}
	return analyses, nil
}

// tokens loads the token counts of one analysis.
func (adb *AnalysisDB) tokens(ctx context.Context, id int64) (model.Frequency, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT token, count FROM tokens WHERE analysis_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer rows.Close()

	freq := model.NewFrequency()
	for rows.Next() {
		var (
			token string
			count int
		)
		if err := rows.Scan(&token, &count); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		freq[token] = count
	}

	return freq, rows.Err()
}

// storedTimestampFormat sorts lexically in time order, which the history
// queries rely on.
const storedTimestampFormat = "2006-01-02 15:04:05.000000000"

// formatTimestamp formats t in UTC for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that may be found in the
// database. The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	"2006-01-02 15:04:05", // SQLite default datetime format
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
