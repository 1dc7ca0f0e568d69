package domain

import (
	"path/filepath"
	"strings"
)

// Role tags which side of the comparison a sequence file plays.
type Role string

const (
	RoleSubject Role = "subject"
	RoleQuery   Role = "query"
)

// RecordCount is the coarse record classification of a sequence file.
// Inspection never counts beyond two.
type RecordCount string

const (
	CountOne  RecordCount = "one"
	CountMany RecordCount = "many"
)

// SequenceSource is a FASTA file plus the role it plays in a comparison.
type SequenceSource struct {
	Path string
	Role Role
}

// Stem is the file name without directory and without its last extension.
func (s SequenceSource) Stem() string {
	return FileStem(s.Path)
}

// InspectionResult is derived per run and never persisted.
type InspectionResult struct {
	Role  Role        `json:"role"`
	Path  string      `json:"path"`
	Count RecordCount `json:"count"`
	// Compressed sources are gzip; the aligner cannot read them directly.
	Compressed bool `json:"compressed,omitempty"`
}

// NeedsSynthesis reports whether the source must be rewritten as a single
// plain record before alignment: it holds many records or is compressed.
func (r InspectionResult) NeedsSynthesis() bool {
	return r.Count == CountMany || r.Compressed
}

// SynthesizedSequence is a generated single-record file standing in for a
// multi-record source. It is never the source path.
type SynthesizedSequence struct {
	Path       string `json:"path"`
	Role       Role   `json:"role"`
	SourcePath string `json:"source_path"`
	Header     string `json:"header"`
	Records    int    `json:"records"`
	BodyLength int64  `json:"body_length"`
}

// FileStem drops the directory and the last extension only; dotfiles keep
// their leading dot.
func FileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
