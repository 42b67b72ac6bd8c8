package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/texfreq/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *AnalysisDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newCompleted creates a completed analysis of document at the given time.
func newCompleted(document string, at time.Time, freq model.Frequency) *model.Analysis {
	a := model.NewAnalysis(document)
	a.DateAnalyzed = at
	a.RunID = "run"
	a.Digest = "digest"
	a.PerformedSteps = []string{"scan"}
	a.Complete(freq, model.ScanStats{LinesRead: 7, CountedLines: 3})
	return a
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		a := newCompleted("a.tex", time.Now(), model.Frequency{"x": 1})
		if err := db.SaveAnalysis(context.Background(), a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		got, err := db.GetAnalysisByID(context.Background(), a.ID)
		if err != nil || got == nil {
			t.Fatalf("expected stored analysis, got %v, %v", got, err)
		}
	})
}

// TestSaveAnalysis tests storing and loading analyses.
func TestSaveAnalysis(t *testing.T) {
	t.Parallel()

	t.Run("round trip keeps counts and metadata", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		at := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)
		freq := model.Frequency{"the": 3, "cat": 2, "caf\u00e9": 1}
		a := newCompleted("paper.tex", at, freq)

		if err := db.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if a.ID == 0 {
			t.Fatal("expected ID to be set")
		}

		got, err := db.GetAnalysisByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !got.Frequency.Equal(freq) {
			t.Errorf("expected %v, got %v", freq, got.Frequency)
		}
		if !got.DateAnalyzed.Equal(at) {
			t.Errorf("expected %v, got %v", at, got.DateAnalyzed)
		}
		if got.Document != DocumentKey("paper.tex") {
			t.Errorf("expected absolute document key, got %q", got.Document)
		}
		if got.Stats.LinesRead != 7 || got.Summary.TotalTokens != 6 {
			t.Errorf("unexpected stats %+v / summary %+v", got.Stats, got.Summary)
		}
		if !got.IsCompleted() || got.RunID != "run" || got.Digest != "digest" {
			t.Errorf("unexpected metadata: %+v", got)
		}
		if !slices.Equal(got.PerformedSteps, []string{"scan"}) {
			t.Errorf("unexpected steps: %v", got.PerformedSteps)
		}
	})

	t.Run("refuses aborted analysis", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		a := model.NewAnalysis("bad.tex")
		a.Abort(errors.New("scan failed"))

		if err := db.SaveAnalysis(context.Background(), a); !errors.Is(err, ErrNotCompleted) {
			t.Errorf("expected ErrNotCompleted, got %v", err)
		}
		docs, err := db.ListDocuments(context.Background())
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no documents, got %v", docs)
		}
	})

	t.Run("empty frequency is stored", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		a := newCompleted("empty.tex", time.Now(), model.NewFrequency())
		if err := db.SaveAnalysis(context.Background(), a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		got, err := db.GetAnalysisByID(context.Background(), a.ID)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if len(got.Frequency) != 0 {
			t.Errorf("expected empty frequency, got %v", got.Frequency)
		}
	})

	t.Run("unknown ID returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetAnalysisByID(context.Background(), 999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})
}

// TestHistory tests listing and ordering.
func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	saves := []*model.Analysis{
		newCompleted("b.tex", base, model.Frequency{"one": 1}),
		newCompleted("a.tex", base.Add(time.Hour), model.Frequency{"two": 2}),
		newCompleted("b.tex", base.Add(2*time.Hour), model.Frequency{"one": 2}),
		newCompleted("b.tex", base.Add(500*time.Millisecond), model.Frequency{"one": 3}),
	}
	for _, a := range saves {
		if err := db.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	t.Run("lists documents once each", func(t *testing.T) {
		t.Parallel()

		docs, err := db.ListDocuments(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		want := []string{DocumentKey("a.tex"), DocumentKey("b.tex")}
		if !slices.Equal(docs, want) {
			t.Errorf("expected %v, got %v", want, docs)
		}
	})

	t.Run("history is newest first", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetHistoryWithMetadata(ctx, "b.tex")
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}
		ids := make([]int64, len(history))
		for i, m := range history {
			ids[i] = m.ID
		}
		want := []int64{saves[2].ID, saves[3].ID, saves[0].ID}
		if !slices.Equal(ids, want) {
			t.Errorf("expected %v, got %v", want, ids)
		}
		if history[0].TotalTokens != 2 || history[0].DistinctTokens != 1 {
			t.Errorf("unexpected metadata: %+v", history[0])
		}
	})

	t.Run("latest analyses are limited", func(t *testing.T) {
		t.Parallel()

		latest, err := db.GetLatestAnalyses(ctx, "b.tex", 2)
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if len(latest) != 2 {
			t.Fatalf("expected 2 analyses, got %d", len(latest))
		}
		if latest[0].Frequency["one"] != 2 || latest[1].Frequency["one"] != 3 {
			t.Errorf("unexpected order: %v, %v", latest[0].Frequency, latest[1].Frequency)
		}
	})

	t.Run("unknown document has no history", func(t *testing.T) {
		t.Parallel()

		history, err := db.GetHistoryWithMetadata(ctx, "none.tex")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected no history, got %v", history)
		}
	})
}

// TestParseTimestamp tests timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"stored format", "2026-01-02 03:04:05.000000006", time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)},
		{"sqlite default", "2026-01-02 03:04:05", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"rfc3339", "2026-01-02T03:04:05Z", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"invalid", "yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("stored format round trips", func(t *testing.T) {
		t.Parallel()
		at := time.Date(2026, 7, 8, 9, 10, 11, 120000000, time.FixedZone("JST", 9*3600))
		if got := parseTimestamp(formatTimestamp(at)); !got.Equal(at) {
			t.Errorf("expected %v, got %v", at, got)
		}
	})
}
