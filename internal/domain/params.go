package domain

import (
	"fmt"
	"math"
	"strings"
)

// TaskMode is the aligner's matching sensitivity, from most to least similar.
type TaskMode string

const (
	TaskMegablast   TaskMode = "megablast"
	TaskDCMegablast TaskMode = "dc-megablast"
	TaskBlastn      TaskMode = "blastn"
)

// Strand restricts which query strand is searched.
type Strand string

const (
	StrandBoth  Strand = "both"
	StrandPlus  Strand = "plus"
	StrandMinus Strand = "minus"
)

const (
	DefaultTask            = TaskBlastn
	DefaultEValue          = 10.0
	DefaultPercentIdentity = 0
	DefaultStrand          = StrandBoth
	DefaultCullingLimit    = 0
)

// Thresholds are the user-tunable numeric and strand settings of an alignment.
type Thresholds struct {
	EValue          float64 `json:"evalue"`
	PercentIdentity int     `json:"perc_identity"`
	Strand          Strand  `json:"strand"`
	CullingLimit    int     `json:"culling_limit"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		EValue:          DefaultEValue,
		PercentIdentity: DefaultPercentIdentity,
		Strand:          DefaultStrand,
		CullingLimit:    DefaultCullingLimit,
	}
}

func (t Thresholds) Validate() error {
	if math.IsNaN(t.EValue) || math.IsInf(t.EValue, 0) || t.EValue <= 0 {
		return invalidParam("evalue", fmt.Sprintf("must be > 0, got %v", t.EValue))
	}
	if t.PercentIdentity < 0 || t.PercentIdentity > 100 {
		return invalidParam("perc_identity", fmt.Sprintf("must be within 0-100, got %d", t.PercentIdentity))
	}
	if _, err := ParseStrand(string(t.Strand)); err != nil {
		return err
	}
	if t.CullingLimit < 0 {
		return invalidParam("culling_limit", fmt.Sprintf("must be >= 0, got %d", t.CullingLimit))
	}
	return nil
}

// AlignmentParameters is the complete, immutable input of one aligner invocation.
type AlignmentParameters struct {
	SubjectPath string   `json:"subject_path"`
	QueryPath   string   `json:"query_path"`
	Task        TaskMode `json:"task"`
	Thresholds
	OutputPath string `json:"output_path"`
}

func (p AlignmentParameters) Validate() error {
	if strings.TrimSpace(p.SubjectPath) == "" {
		return invalidParam("subject_path", "is required")
	}
	if strings.TrimSpace(p.QueryPath) == "" {
		return invalidParam("query_path", "is required")
	}
	if strings.TrimSpace(p.OutputPath) == "" {
		return invalidParam("output_path", "is required")
	}
	if _, err := ParseTaskMode(string(p.Task)); err != nil {
		return err
	}
	return p.Thresholds.Validate()
}

// AlignmentOutcome is produced exactly once by a successful aligner run.
type AlignmentOutcome struct {
	OutputPath  string `json:"output_path"`
	OutputBytes int64  `json:"output_bytes"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

func ParseTaskMode(s string) (TaskMode, error) {
	switch TaskMode(strings.ToLower(strings.TrimSpace(s))) {
	case TaskMegablast:
		return TaskMegablast, nil
	case TaskDCMegablast:
		return TaskDCMegablast, nil
	case TaskBlastn:
		return TaskBlastn, nil
	default:
		return "", invalidParam("task", fmt.Sprintf("unsupported task %q (expected megablast|dc-megablast|blastn)", s))
	}
}

func ParseStrand(s string) (Strand, error) {
	switch Strand(strings.ToLower(strings.TrimSpace(s))) {
	case StrandBoth:
		return StrandBoth, nil
	case StrandPlus:
		return StrandPlus, nil
	case StrandMinus:
		return StrandMinus, nil
	default:
		return "", invalidParam("strand", fmt.Sprintf("unsupported strand %q (expected both|plus|minus)", s))
	}
}

func invalidParam(field, msg string) error {
	return fmt.Errorf("field %s: %s: %w", field, msg, ErrInvalidParams)
}
