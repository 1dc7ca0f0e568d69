package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/infra/fasta"
)

// gatedRunner tracks how many comparisons run at once.
type gatedRunner struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	fail     map[string]bool
}

func (g *gatedRunner) Execute(_ context.Context, req domain.ComparisonRequest) (domain.ComparisonReport, string, error) {
	n := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	g.inFlight.Add(-1)

	if g.fail[req.SubjectPath] {
		return domain.ComparisonReport{Stage: domain.StageAbort}, "", errors.New("boom")
	}
	return domain.ComparisonReport{Stage: domain.StageDone}, "id-" + req.SubjectPath, nil
}

func manifestOf(subjects ...string) domain.Manifest {
	m := domain.Manifest{Path: "batch.yaml"}
	for _, s := range subjects {
		m.Comparisons = append(m.Comparisons, newRequest(s, "q.fa", "/out"))
	}
	return m
}

func TestRunBatch_RespectsJobLimitAndOrder(t *testing.T) {
	r := &gatedRunner{fail: map[string]bool{"b.fa": true}}
	uc := NewRunBatch(r)

	rep, err := uc.Execute(context.Background(), manifestOf("a.fa", "b.fa", "c.fa", "d.fa", "e.fa"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.peak.Load(); got > 2 {
		t.Fatalf("expected at most 2 concurrent comparisons, saw %d", got)
	}
	if len(rep.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(rep.Items))
	}
	for i, want := range []string{"a.fa", "b.fa", "c.fa", "d.fa", "e.fa"} {
		it := rep.Items[i]
		if it.Index != i || it.Request.SubjectPath != want {
			t.Fatalf("item %d out of order: %+v", i, it)
		}
	}
	if rep.Failed() != 1 || rep.Items[1].Err == nil {
		t.Fatalf("expected only b.fa to fail, failed=%d", rep.Failed())
	}
	if rep.Items[4].RunID != "id-e.fa" {
		t.Fatalf("expected run id carried, got %q", rep.Items[4].RunID)
	}
}

func TestRunBatch_RejectsDuplicateOutputs(t *testing.T) {
	r := &gatedRunner{}
	_, err := NewRunBatch(r).Execute(context.Background(), manifestOf("a.fa", "b.fa", "a.fa"), 1)
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if r.peak.Load() != 0 {
		t.Fatal("nothing may run for a rejected manifest")
	}
}

func TestRunBatch_RealPipelinesDoNotShareTempFiles(t *testing.T) {
	dir := t.TempDir()
	subject := writeFasta(t, dir, "s.fasta", threeRecords)
	queries := []string{
		writeFasta(t, dir, "q1.fasta", otherThree),
		writeFasta(t, dir, "q2.fasta", otherThree),
		writeFasta(t, dir, "q3.fasta", otherThree),
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	al := writingAligner(func(p domain.AlignmentParameters) {
		mu.Lock()
		defer mu.Unlock()
		seen[p.SubjectPath] = true
		seen[p.QueryPath] = true
	})
	compare := NewRunComparison(fasta.NewInspector(), fasta.NewSynthesizer(), al)

	m := domain.Manifest{Path: filepath.Join(dir, "batch.yaml")}
	for _, q := range queries {
		m.Comparisons = append(m.Comparisons, newRequest(subject, q, dir))
	}

	rep, err := NewRunBatch(compare).Execute(context.Background(), m, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Failed() != 0 {
		t.Fatalf("expected no failures, got %d", rep.Failed())
	}
	// Three subjects and three queries, all synthesized under distinct names.
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct temp files, got %d", len(seen))
	}
	if files := synthFiles(t, dir); len(files) != 0 {
		t.Fatalf("all temp files should be cleaned, found %v", files)
	}
}
