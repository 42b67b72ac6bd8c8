package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/texfreq/internal/model"
)

func comparedAnalyses() (*model.Analysis, *model.Analysis) {
	before := model.NewAnalysis("paper.tex")
	before.ID = 1
	before.DateAnalyzed = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before.Complete(model.Frequency{"cat": 2, "dog": 1, "the": 4}, model.ScanStats{})

	after := model.NewAnalysis("paper.tex")
	after.ID = 2
	after.DateAnalyzed = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	after.Complete(model.Frequency{"cat": 5, "the": 4, "bird": 1}, model.ScanStats{})
	return before, after
}

func TestComparisonWriter(t *testing.T) {
	t.Parallel()

	t.Run("text lists changes by size", func(t *testing.T) {
		t.Parallel()

		before, after := comparedAnalyses()
		var buf bytes.Buffer
		if _, err := NewComparisonWriter(&buf, false).Write(before, after); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		catAt := strings.Index(output, "cat")
		birdAt := strings.Index(output, "bird")
		if catAt < 0 || birdAt < 0 || catAt > birdAt {
			t.Errorf("expected cat before bird, got:\n%s", output)
		}
		if !strings.Contains(output, "(new)") || !strings.Contains(output, "(gone)") {
			t.Errorf("expected new and gone markers, got:\n%s", output)
		}
		if strings.Contains(output, " the ") {
			t.Errorf("unchanged token listed:\n%s", output)
		}
	})

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()

		before, _ := comparedAnalyses()
		var buf bytes.Buffer
		if _, err := NewComparisonWriter(&buf, false).Write(before, before); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes.") {
			t.Errorf("expected no changes, got:\n%s", buf.String())
		}
	})

	t.Run("json respects window and exclusion", func(t *testing.T) {
		t.Parallel()

		before, after := comparedAnalyses()
		var buf bytes.Buffer
		w := NewComparisonWriter(&buf, true, WithTop(1), WithExclude("cat"))
		if _, err := w.Write(before, after); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got jsonComparison
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Total != 2 || len(got.Changes) != 1 {
			t.Errorf("expected 1 of 2 changes, got %d of %d", len(got.Changes), got.Total)
		}
		if got.Changes[0].Token != "bird" {
			t.Errorf("expected bird first, got %+v", got.Changes[0])
		}
		if got.Before.ID != 1 || got.After.ID != 2 {
			t.Errorf("unexpected sides: %+v / %+v", got.Before, got.After)
		}
	})

	t.Run("refuses aborted analyses", func(t *testing.T) {
		t.Parallel()

		before, after := comparedAnalyses()
		after.Abort(errors.New("boom"))

		var buf bytes.Buffer
		if _, err := NewComparisonWriter(&buf, false).Write(before, after); !errors.Is(err, ErrIncompleteAnalysis) {
			t.Errorf("expected ErrIncompleteAnalysis, got %v", err)
		}
	})
}
