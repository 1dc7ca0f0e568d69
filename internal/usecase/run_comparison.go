package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

// RunComparison drives one subject/query pair through
// inspect → synthesize → align → cleanup.
type RunComparison struct {
	inspector   ports.SequenceInspector
	synthesizer ports.SequenceSynthesizer
	aligner     ports.Aligner
	store       ports.RunStore

	log    *slog.Logger
	remove func(string) error
	now    func() time.Time
}

type Option func(*RunComparison)

// WithStore persists a RunRecord for every run, successful or not.
func WithStore(s ports.RunStore) Option {
	return func(uc *RunComparison) { uc.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(uc *RunComparison) {
		if l != nil {
			uc.log = l
		}
	}
}

// WithRemover replaces os.Remove during cleanup.
func WithRemover(fn func(string) error) Option {
	return func(uc *RunComparison) {
		if fn != nil {
			uc.remove = fn
		}
	}
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(uc *RunComparison) {
		if now != nil {
			uc.now = now
		}
	}
}

func NewRunComparison(in ports.SequenceInspector, syn ports.SequenceSynthesizer, al ports.Aligner, opts ...Option) *RunComparison {
	uc := &RunComparison{
		inspector:   in,
		synthesizer: syn,
		aligner:     al,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		remove:      os.Remove,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute runs the pipeline. On failure the returned error is a
// *domain.StageError and the report has Stage == StageAbort; synthesized
// files are then left on disk and listed in Retained. The run id is empty
// unless a store is configured.
func (uc *RunComparison) Execute(ctx context.Context, req domain.ComparisonRequest) (domain.ComparisonReport, string, error) {
	r := &pipelineRun{
		uc:     uc,
		ledger: domain.NewTempLedger(),
		report: domain.ComparisonReport{
			Stage:     domain.StageStart,
			StartedAt: uc.now(),
		},
	}

	err := r.run(ctx, req)
	r.report.EndedAt = uc.now()
	if err != nil {
		r.report.AbortedAt = r.report.Stage
		r.report.Stage = domain.StageAbort
		r.report.Retained = ledgerPaths(r.ledger.All())
		err = &domain.StageError{Stage: r.report.AbortedAt, Err: err}
		uc.log.Info("pipeline.abort", "stage", r.report.AbortedAt, "retained", len(r.report.Retained), "err", err)
	}

	id := uc.save(req, r.report, err)
	return r.report, id, err
}

type pipelineRun struct {
	uc     *RunComparison
	ledger *domain.TempLedger
	report domain.ComparisonReport
}

func (r *pipelineRun) enter(s domain.Stage) {
	r.report.Stage = s
	r.uc.log.Debug("pipeline.stage", "stage", s)
}

func (r *pipelineRun) run(ctx context.Context, req domain.ComparisonRequest) error {
	if err := req.Validate(); err != nil {
		return &domain.OpError{Op: "pipeline.validate", Kind: domain.KindInvalidConfig, Err: err}
	}

	params := domain.AlignmentParameters{
		SubjectPath: req.SubjectPath,
		QueryPath:   req.QueryPath,
		Task:        req.Task,
		Thresholds:  req.Thresholds,
		OutputPath:  req.ResolveOutputPath(),
	}
	r.report.Params = params

	sources := []domain.SequenceSource{
		{Path: req.SubjectPath, Role: domain.RoleSubject},
		{Path: req.QueryPath, Role: domain.RoleQuery},
	}
	stages := []domain.Stage{domain.StageInspectSubject, domain.StageInspectQuery}

	inspections := make([]domain.InspectionResult, 0, len(sources))
	for i, src := range sources {
		r.enter(stages[i])
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.uc.inspector.Inspect(ctx, src)
		if err != nil {
			return err
		}
		r.uc.log.Info("pipeline.inspect", "role", src.Role, "path", src.Path, "count", res.Count)
		inspections = append(inspections, res)
		r.report.Inspections = append(r.report.Inspections, res)
	}

	r.enter(domain.StageSynthesize)
	tempDir := req.ResolveTempDir()
	for i, res := range inspections {
		if !res.NeedsSynthesis() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		synth, err := r.uc.synthesizer.Synthesize(ctx, sources[i], tempDir)
		if synth.Path != "" {
			r.ledger.Register(synth.Path, synth.Role)
		}
		if err != nil {
			return err
		}
		r.report.Synthesized = append(r.report.Synthesized, synth)

		switch res.Role {
		case domain.RoleSubject:
			params.SubjectPath = synth.Path
		case domain.RoleQuery:
			params.QueryPath = synth.Path
		}
	}
	r.report.Params = params

	r.enter(domain.StageAlign)
	if err := ctx.Err(); err != nil {
		return err
	}
	actx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	outcome, err := r.uc.aligner.Align(actx, params)
	if err != nil {
		return err
	}
	if outcome.Diagnostics != "" {
		r.uc.log.Info("aligner.diagnostics", "text", outcome.Diagnostics)
	}

	r.enter(domain.StageCleanup)
	r.cleanup(req.KeepTemp)

	r.enter(domain.StageDone)
	r.report.Outcome = &outcome
	r.uc.log.Info("pipeline.done", "output", outcome.OutputPath, "bytes", outcome.OutputBytes)
	return nil
}

// cleanup deletes every ledger entry once, in registration order. Missing
// files and failed removals are warnings, never errors.
func (r *pipelineRun) cleanup(keep bool) {
	entries := r.ledger.All()
	r.report.Removed = []string{}
	r.report.Retained = []string{}

	if keep {
		for _, e := range entries {
			r.report.Retained = append(r.report.Retained, e.Path)
			r.uc.log.Info("cleanup.retained", "role", e.Role, "path", e.Path)
		}
		return
	}

	for _, e := range entries {
		err := r.uc.remove(e.Path)
		switch {
		case err == nil:
			r.report.Removed = append(r.report.Removed, e.Path)
			r.uc.log.Debug("cleanup.removed", "role", e.Role, "path", e.Path)
		case errors.Is(err, fs.ErrNotExist):
			r.report.Missing = append(r.report.Missing, e.Path)
			r.uc.log.Warn("cleanup.missing", "role", e.Role, "path", e.Path)
		default:
			r.report.Retained = append(r.report.Retained, e.Path)
			r.uc.log.Warn("cleanup.failed", "role", e.Role, "path", e.Path, "err", err)
		}
	}
	r.ledger.Clear()
}

func (uc *RunComparison) save(req domain.ComparisonRequest, report domain.ComparisonReport, runErr error) string {
	if uc.store == nil {
		return ""
	}

	rec := domain.RunRecord{
		SubjectPath: req.SubjectPath,
		QueryPath:   req.QueryPath,
		KeepTemp:    req.KeepTemp,
		Report:      report,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	id, err := uc.store.SaveRun(rec)
	if err != nil {
		uc.log.Warn("runstore.save_failed", "err", err)
		return ""
	}
	uc.log.Info("runstore.saved", "id", id)
	return id
}

func ledgerPaths(entries []domain.TempEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}
