package blastn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

const DefaultBinary = "blastn"

// warningPrefix marks stderr lines blastn emits for non-fatal conditions.
const warningPrefix = "Warning:"

type Runner struct {
	binary string
	env    []string
	log    *slog.Logger
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment of the
// aligner. Later pairs win over inherited ones with the same key.
func WithEnv(kv ...string) Option {
	return func(r *Runner) { r.env = append(r.env, kv...) }
}

func New(binary string, opts ...Option) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	r := &Runner{
		binary: binary,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Aligner = (*Runner)(nil)

// Align blocks until blastn exits. The output file is written by blastn
// itself; the runner only checks it exists afterwards.
func (r *Runner) Align(ctx context.Context, params domain.AlignmentParameters) (domain.AlignmentOutcome, error) {
	if err := params.Validate(); err != nil {
		return domain.AlignmentOutcome{}, &domain.OpError{
			Op:   "blastn.validate",
			Kind: domain.KindInvalidConfig,
			Path: params.OutputPath,
			Err:  err,
		}
	}

	if err := os.MkdirAll(filepath.Dir(params.OutputPath), 0o755); err != nil {
		return domain.AlignmentOutcome{}, &domain.OpError{
			Op:   "blastn.mkdir",
			Kind: domain.KindExecution,
			Path: filepath.Dir(params.OutputPath),
			Err:  err,
		}
	}

	args := BuildArgs(params)
	argv := append([]string{r.binary}, args...)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Info("aligner.exec", "cmd", strings.Join(argv, " "))

	if err := cmd.Run(); err != nil {
		ae := &domain.AlignerError{Args: argv, Stderr: stderr.String(), Err: err}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			ae.ExitCode = ee.ExitCode()
		}
		if cerr := ctx.Err(); cerr != nil {
			ae.Err = errors.Join(cerr, err)
		}
		return domain.AlignmentOutcome{}, alignErr(params, ae)
	}

	warnings, fatal := splitDiagnostics(stderr.String())
	if len(fatal) > 0 {
		return domain.AlignmentOutcome{}, alignErr(params, &domain.AlignerError{
			Args:   argv,
			Stderr: stderr.String(),
			Err:    errors.New("aligner reported errors"),
		})
	}
	for _, w := range warnings {
		r.log.Warn("aligner.warning", "message", w)
	}

	info, err := os.Stat(params.OutputPath)
	if err != nil {
		return domain.AlignmentOutcome{}, alignErr(params, &domain.AlignerError{
			Args:   argv,
			Stderr: stderr.String(),
			Err:    fmt.Errorf("no output file produced: %w", err),
		})
	}

	diag := strings.TrimSpace(strings.Join(append(nonEmptyLines(stdout.String()), warnings...), "\n"))
	r.log.Info("aligner.done", "out", params.OutputPath, "bytes", info.Size())

	return domain.AlignmentOutcome{
		OutputPath:  params.OutputPath,
		OutputBytes: info.Size(),
		Diagnostics: diag,
	}, nil
}

func alignErr(p domain.AlignmentParameters, ae *domain.AlignerError) error {
	return &domain.OpError{
		Op:   "blastn.run",
		Kind: domain.KindAlignmentExecution,
		Path: p.OutputPath,
		Err:  ae,
	}
}

// splitDiagnostics separates warning lines from anything else on stderr.
func splitDiagnostics(stderr string) (warnings, fatal []string) {
	for _, line := range nonEmptyLines(stderr) {
		if strings.HasPrefix(line, warningPrefix) {
			warnings = append(warnings, line)
			continue
		}
		fatal = append(fatal, line)
	}
	return warnings, fatal
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
