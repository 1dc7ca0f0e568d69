package usecase

import (
	"context"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

// InspectedFile is the classification of one file, or why it failed.
type InspectedFile struct {
	Path   string
	Result domain.InspectionResult
	Err    error
}

type InspectSequences struct {
	inspector ports.SequenceInspector
}

func NewInspectSequences(inspector ports.SequenceInspector) *InspectSequences {
	return &InspectSequences{inspector: inspector}
}

// Execute inspects every path, continuing past failures. The returned error
// is only set when ctx ends early.
func (uc *InspectSequences) Execute(ctx context.Context, paths []string) ([]InspectedFile, error) {
	out := make([]InspectedFile, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := uc.inspector.Inspect(ctx, domain.SequenceSource{Path: p})
		out = append(out, InspectedFile{Path: p, Result: res, Err: err})
	}
	return out, nil
}
