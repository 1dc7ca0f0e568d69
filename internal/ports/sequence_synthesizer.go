package ports

import (
	"context"

	"github.com/jrjhealey/Oread/internal/domain"
)

// SequenceSynthesizer writes a single-record concatenation of src into dir.
type SequenceSynthesizer interface {
	Synthesize(ctx context.Context, src domain.SequenceSource, dir string) (domain.SynthesizedSequence, error)
}
