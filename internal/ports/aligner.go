package ports

import (
	"context"

	"github.com/jrjhealey/Oread/internal/domain"
)

// Aligner runs the external aligner once. It only borrows the paths in params.
type Aligner interface {
	Align(ctx context.Context, params domain.AlignmentParameters) (domain.AlignmentOutcome, error)
}
