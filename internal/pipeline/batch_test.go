package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/texfreq/internal/model"
)

// fakeFactory returns pipelines that complete every document with one
// occurrence of its name, except documents listed in failing.
func fakeFactory(failing ...string) func(string) *Pipeline {
	return func(document string) *Pipeline {
		p := New()
		for _, f := range failing {
			if f == document {
				p.AddStep(&mockStep{name: "fail", doFunc: func(context.Context, *model.Analysis) error {
					return errors.New("cannot scan " + document)
				}})
				return p
			}
		}
		p.AddStep(completeStep(model.Frequency{document: 1, "shared": 2}))
		return p
	}
}

// TestBatchProcessorProcessBatch tests sequential batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("returns one analysis per document in order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(fakeFactory(), WithRunID("run-42"))
		docs := []string{"a.tex", "b.tex", "c.tex"}

		results, err := bp.ProcessBatch(context.Background(), docs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(docs) {
			t.Fatalf("expected %d results, got %d", len(docs), len(results))
		}
		for i, a := range results {
			if a.Document != docs[i] {
				t.Errorf("result %d: expected %s, got %s", i, docs[i], a.Document)
			}
			if a.RunID != "run-42" {
				t.Errorf("result %d: expected run ID, got %q", i, a.RunID)
			}
			if !a.IsCompleted() {
				t.Errorf("result %d: expected completed, got %s", i, a.Status)
			}
		}
	})

	t.Run("failed document does not stop the batch", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(fakeFactory("b.tex"))
		results, err := bp.ProcessBatch(context.Background(), []string{"a.tex", "b.tex", "c.tex"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[1].Status != model.StatusAborted {
			t.Errorf("expected b.tex aborted, got %s", results[1].Status)
		}
		if !results[0].IsCompleted() || !results[2].IsCompleted() {
			t.Error("expected other documents to complete")
		}
	})

	t.Run("cancellation aborts the remaining documents", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(fakeFactory())
		results, err := bp.ProcessBatch(ctx, []string{"a.tex", "b.tex"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		for _, a := range results {
			if a.Status != model.StatusAborted {
				t.Errorf("expected %s aborted, got %s", a.Document, a.Status)
			}
			if !errors.Is(a.Error, context.Canceled) {
				t.Errorf("expected cancellation error, got %v", a.Error)
			}
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var indexes []int
	bp := NewBatchProcessor(fakeFactory())
	err := bp.ProcessBatchWithCallback(context.Background(), []string{"x.tex", "y.tex"}, func(a *model.Analysis, i int) {
		indexes = append(indexes, i)
		if !a.IsCompleted() {
			t.Errorf("expected completed analysis for %s", a.Document)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indexes) != 2 || indexes[0] != 0 || indexes[1] != 1 {
		t.Errorf("unexpected callback order: %v", indexes)
	}
}

// TestAggregate tests merging of batch results.
func TestAggregate(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(fakeFactory("bad.tex"))
	results, err := bp.ProcessBatch(context.Background(), []string{"a.tex", "bad.tex", "b.tex"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("merges completed analyses only", func(t *testing.T) {
		t.Parallel()

		got := Aggregate(results)
		want := model.Frequency{"a.tex": 1, "b.tex": 1, "shared": 4}
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("order does not matter", func(t *testing.T) {
		t.Parallel()

		reversed := []*model.Analysis{results[2], results[1], results[0]}
		if !Aggregate(reversed).Equal(Aggregate(results)) {
			t.Error("expected the same aggregate in reverse order")
		}
	})

	t.Run("aggregate analysis is completed", func(t *testing.T) {
		t.Parallel()

		a := AggregateAnalysis(results)
		if a == nil {
			t.Fatal("expected aggregate analysis")
		}
		if !a.IsCompleted() {
			t.Errorf("expected completed, got %s", a.Status)
		}
		if a.Document != "aggregate of 2 documents" {
			t.Errorf("unexpected document %q", a.Document)
		}
		if a.Stats.CountedLines != 2 || a.Summary.TotalTokens != 6 {
			t.Errorf("unexpected stats %+v / summary %+v", a.Stats, a.Summary)
		}
	})

	t.Run("no completed analysis gives nil", func(t *testing.T) {
		t.Parallel()

		if a := AggregateAnalysis([]*model.Analysis{results[1]}); a != nil {
			t.Errorf("expected nil, got %+v", a)
		}
		if got := Aggregate(nil); len(got) != 0 {
			t.Errorf("expected empty aggregate, got %v", got)
		}
	})
}
