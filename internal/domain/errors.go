package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrInvalidParams      = errors.New("invalid alignment parameters")
	ErrMalformedInput     = errors.New("malformed sequence input")
	ErrSynthesisIO        = errors.New("synthesis i/o error")
	ErrAlignmentExecution = errors.New("alignment execution error")
	ErrExecution          = errors.New("execution error")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidConfig      ErrorKind = "invalid_config"
	KindMalformedInput     ErrorKind = "malformed_input"
	KindSynthesisIO        ErrorKind = "synthesis_io"
	KindAlignmentExecution ErrorKind = "alignment_execution"
	KindExecution          ErrorKind = "execution"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Role Role   // Optional: subject or query
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Role != "" {
		base += fmt.Sprintf(" (role=%s)", e.Role)
	}
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match an OpError against the sentinel of its kind,
// even when Err is some lower-level cause.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinel(e.Kind) == target
}

func kindSentinel(k ErrorKind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidConfig:
		return ErrInvalidConfig
	case KindMalformedInput:
		return ErrMalformedInput
	case KindSynthesisIO:
		return ErrSynthesisIO
	case KindAlignmentExecution:
		return ErrAlignmentExecution
	case KindExecution:
		return ErrExecution
	}
	return nil
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// AlignerError is produced when the external aligner fails. Stderr holds the
// captured error stream verbatim.
type AlignerError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *AlignerError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("running %q", strings.Join(e.Args, " "))
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitCode)
	} else if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n\nstderr:\n" + s
	}
	return msg
}

func (e *AlignerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StageError records where the comparison pipeline stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("aborted at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AbortStage reports the stage recorded by a StageError anywhere in err's chain.
func AbortStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
