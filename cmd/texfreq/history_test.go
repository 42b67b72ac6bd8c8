package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// analyzeTwice stores two analyses of one document whose second version
// drops a "cat" and adds a "dog". It returns the document and the
// database directory.
func analyzeTwice(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	dbDir := filepath.Join(dir, "db")
	cfg := emptyConfig(t, dir)
	doc := writeFile(t, dir, "cat.tex", catDocument)

	if _, _, err := runCLI(t, "analyze", "--db-dir", dbDir, "-c", cfg, doc); err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}

	writeFile(t, dir, "cat.tex", "\\begin{document}\nThe cat sat.\nThe dog ran.\n\\end{document}\n")
	if _, _, err := runCLI(t, "analyze", "--db-dir", dbDir, "-c", cfg, doc); err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}
	return doc, dbDir
}

// TestNewHistoryCmd tests the history command flags.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	for _, name := range []string{"list", "list-documents", "with-id", "since", "json", "top", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// TestRunHistoryCmd tests listing and comparing stored analyses.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("compares the latest two analyses", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Document: "+doc) {
			t.Errorf("expected document line, got:\n%s", stdout)
		}
		for _, want := range []string{"dog", "0 -> 1  (new)", "cat", "2 -> 1"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
		if strings.Contains(stdout, "  sat ") {
			t.Errorf("unchanged words must not be listed, got:\n%s", stdout)
		}
	})

	t.Run("json comparison", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--json", "--db-dir", dbDir, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Document string `json:"document"`
			Changes  []struct {
				Token  string `json:"token"`
				Before int    `json:"before"`
				After  int    `json:"after"`
			} `json:"changes"`
			Total int `json:"total_changes"`
		}
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if got.Total != 2 || len(got.Changes) != 2 {
			t.Errorf("expected 2 changes, got %+v", got)
		}
	})

	t.Run("with-id compares with a specific analysis", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--with-id", "1", "--db-dir", dbDir, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Before:   #1 ") {
			t.Errorf("expected analysis 1 as the base, got:\n%s", stdout)
		}
	})

	t.Run("since compares with the earliest analysis after the date", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--since", "2000-01-01", "--db-dir", dbDir, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Before:   #1 ") || !strings.Contains(stdout, "After:    #2 ") {
			t.Errorf("expected analysis 1 against analysis 2, got:\n%s", stdout)
		}
	})

	t.Run("invalid since date", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		if _, _, err := runCLI(t, "history", "--since", "yesterday", "--db-dir", dbDir, doc); err == nil {
			t.Error("expected error for invalid date")
		}
	})

	t.Run("document without history", func(t *testing.T) {
		t.Parallel()
		_, dbDir := analyzeTwice(t)

		_, _, err := runCLI(t, "history", "--db-dir", dbDir, filepath.Join(t.TempDir(), "other.tex"))
		if err == nil || !strings.Contains(err.Error(), "no history found") {
			t.Errorf("expected no history error, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		if _, _, err := runCLI(t, "history", "--with-id", "99", "--db-dir", dbDir, doc); err == nil {
			t.Error("expected error for unknown analysis ID")
		}
	})

	t.Run("list analyses", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--list", "--db-dir", dbDir, doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "(2 analyses)") {
			t.Errorf("expected 2 analyses, got:\n%s", stdout)
		}
	})

	t.Run("list documents as json", func(t *testing.T) {
		t.Parallel()
		doc, dbDir := analyzeTwice(t)

		stdout, _, err := runCLI(t, "history", "--list-documents", "--json", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var documents []string
		if err := json.Unmarshal([]byte(stdout), &documents); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if len(documents) != 1 || documents[0] != doc {
			t.Errorf("expected [%s], got %v", doc, documents)
		}
	})

	t.Run("single analysis cannot be compared", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		dbDir := filepath.Join(dir, "db")
		doc := writeFile(t, dir, "cat.tex", catDocument)

		if _, _, err := runCLI(t, "analyze", "--db-dir", dbDir, "-c", emptyConfig(t, dir), doc); err != nil {
			t.Fatalf("analysis failed: %v", err)
		}

		_, _, err := runCLI(t, "history", "--db-dir", dbDir, doc)
		if err == nil || !strings.Contains(err.Error(), "at least 2 analyses") {
			t.Errorf("expected at least 2 analyses error, got %v", err)
		}
	})

	t.Run("document is required", func(t *testing.T) {
		t.Parallel()
		if _, _, err := runCLI(t, "history", "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error without document")
		}
	})

	t.Run("with-id and since conflict", func(t *testing.T) {
		t.Parallel()
		if _, _, err := runCLI(t, "history", "--with-id", "1", "--since", "2026-01-01", "--db-dir", t.TempDir(), "a.tex"); err == nil {
			t.Error("expected error for conflicting flags")
		}
	})
}
