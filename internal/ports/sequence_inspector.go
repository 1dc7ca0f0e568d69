package ports

import (
	"context"

	"github.com/jrjhealey/Oread/internal/domain"
)

// SequenceInspector classifies a sequence file as holding one or many records.
type SequenceInspector interface {
	Inspect(ctx context.Context, src domain.SequenceSource) (domain.InspectionResult, error)
}
