package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ActExt is the extension ACT expects for comparison files.
const ActExt = ".act"

// ComparisonRequest is the validated parameter bundle handed to the pipeline
// by the CLI layer.
type ComparisonRequest struct {
	SubjectPath string
	QueryPath   string

	// OutputPath wins over OutputDir when both are set.
	OutputPath string
	OutputDir  string
	// TempDir overrides where synthesized files are written; defaults to the
	// output file's directory.
	TempDir string

	Task       TaskMode
	Thresholds Thresholds

	KeepTemp bool
	Timeout  time.Duration
}

func (r ComparisonRequest) Validate() error {
	if strings.TrimSpace(r.SubjectPath) == "" {
		return invalidParam("subject", "is required")
	}
	if strings.TrimSpace(r.QueryPath) == "" {
		return invalidParam("query", "is required")
	}
	if _, err := ParseTaskMode(string(r.Task)); err != nil {
		return err
	}
	if r.Timeout < 0 {
		return invalidParam("timeout", fmt.Sprintf("must be >= 0, got %s", r.Timeout))
	}
	return r.Thresholds.Validate()
}

// ResolveOutputPath returns the explicit output path when given, otherwise
// <dir>/<subject-stem>_vs_<query-stem>.act. dir falls back to the subject's
// directory.
func (r ComparisonRequest) ResolveOutputPath() string {
	if p := strings.TrimSpace(r.OutputPath); p != "" {
		return filepath.Clean(p)
	}
	dir := strings.TrimSpace(r.OutputDir)
	if dir == "" {
		dir = filepath.Dir(r.SubjectPath)
	}
	return filepath.Join(dir, ComparisonFileName(r.SubjectPath, r.QueryPath))
}

// ResolveTempDir is where synthesized sequences are written for this request.
func (r ComparisonRequest) ResolveTempDir() string {
	if d := strings.TrimSpace(r.TempDir); d != "" {
		return filepath.Clean(d)
	}
	return filepath.Dir(r.ResolveOutputPath())
}

func ComparisonFileName(subjectPath, queryPath string) string {
	return fmt.Sprintf("%s_vs_%s%s", FileStem(subjectPath), FileStem(queryPath), ActExt)
}
