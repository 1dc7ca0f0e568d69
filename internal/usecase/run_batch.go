package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jrjhealey/Oread/internal/domain"
)

// comparisonRunner is satisfied by *RunComparison.
type comparisonRunner interface {
	Execute(ctx context.Context, req domain.ComparisonRequest) (domain.ComparisonReport, string, error)
}

// RunBatch runs every comparison of a manifest with bounded concurrency.
// Each comparison owns its ledger; a failure never stops its siblings.
type RunBatch struct {
	compare comparisonRunner
	log     *slog.Logger
	now     func() time.Time
}

type BatchOption func(*RunBatch)

func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(uc *RunBatch) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewRunBatch(compare comparisonRunner, opts ...BatchOption) *RunBatch {
	uc := &RunBatch{
		compare: compare,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute returns items in manifest order. jobs <= 0 means one job per CPU.
// The error is only set for a manifest that cannot run at all; per-item
// failures are reported in BatchItem.Err.
func (uc *RunBatch) Execute(ctx context.Context, m domain.Manifest, jobs int) (domain.BatchReport, error) {
	rep := domain.BatchReport{StartedAt: uc.now()}

	if err := checkDistinctOutputs(m); err != nil {
		rep.EndedAt = uc.now()
		return rep, err
	}

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	rep.Items = make([]domain.BatchItem, len(m.Comparisons))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, req := range m.Comparisons {
		g.Go(func() error {
			log := uc.log.With("item", i, "subject", req.SubjectPath, "query", req.QueryPath)
			log.Info("batch.start")

			report, id, err := uc.compare.Execute(ctx, req)
			rep.Items[i] = domain.BatchItem{Index: i, Request: req, Report: report, RunID: id, Err: err}

			if err != nil {
				log.Warn("batch.failed", "err", err)
			} else {
				log.Info("batch.done", "run_id", id)
			}
			return nil
		})
	}
	_ = g.Wait()

	rep.EndedAt = uc.now()
	uc.log.Info("batch.finished", "total", len(rep.Items), "failed", rep.Failed())
	return rep, nil
}

// checkDistinctOutputs rejects manifests where two comparisons would write
// the same output file concurrently.
func checkDistinctOutputs(m domain.Manifest) error {
	seen := make(map[string]int, len(m.Comparisons))
	for i, req := range m.Comparisons {
		out := req.ResolveOutputPath()
		if j, dup := seen[out]; dup {
			return &domain.OpError{
				Op:   "batch.validate",
				Kind: domain.KindInvalidConfig,
				Path: m.Path,
				Err:  fmt.Errorf("comparisons[%d] and comparisons[%d] both write %s: %w", j, i, out, domain.ErrInvalidParams),
			}
		}
		seen[out] = i
	}
	return nil
}
