package domain

import "time"

// Stage is a state of the comparison pipeline. The machine is linear:
// start → inspect_subject → inspect_query → synthesize → align → cleanup → done,
// with abort reachable from any step.
type Stage string

const (
	StageStart          Stage = "start"
	StageInspectSubject Stage = "inspect_subject"
	StageInspectQuery   Stage = "inspect_query"
	StageSynthesize     Stage = "synthesize"
	StageAlign          Stage = "align"
	StageCleanup        Stage = "cleanup"
	StageDone           Stage = "done"
	StageAbort          Stage = "abort"
)

// ComparisonReport describes one pipeline run. Outcome is set only when
// Stage is StageDone.
type ComparisonReport struct {
	Stage     Stage `json:"stage"`
	AbortedAt Stage `json:"aborted_at,omitempty"`

	Params      AlignmentParameters   `json:"params"`
	Inspections []InspectionResult    `json:"inspections"`
	Synthesized []SynthesizedSequence `json:"synthesized"`

	// Removed and Retained partition the ledger after cleanup. Missing lists
	// ledger entries that were already gone at cleanup time.
	Removed  []string `json:"removed"`
	Retained []string `json:"retained"`
	Missing  []string `json:"missing,omitempty"`

	Outcome *AlignmentOutcome `json:"outcome,omitempty"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// RunRecord is a persisted comparison run.
type RunRecord struct {
	ID string `json:"id"`

	SubjectPath string `json:"subject_path"`
	QueryPath   string `json:"query_path"`
	KeepTemp    bool   `json:"keep_temp"`

	Report ComparisonReport `json:"report"`
	Error  string           `json:"error,omitempty"`
}

// Manifest lists several comparisons to run as one batch.
type Manifest struct {
	Path        string
	Comparisons []ComparisonRequest
}

// BatchItem is the result of one manifest entry.
type BatchItem struct {
	Index   int
	Request ComparisonRequest
	Report  ComparisonReport
	RunID   string
	Err     error
}

// BatchReport keeps items in manifest order regardless of completion order.
type BatchReport struct {
	Items     []BatchItem
	StartedAt time.Time
	EndedAt   time.Time
}

func (b BatchReport) Failed() int {
	n := 0
	for _, it := range b.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}
