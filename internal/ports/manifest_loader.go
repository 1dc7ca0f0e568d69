package ports

import "github.com/jrjhealey/Oread/internal/domain"

// ManifestLoader loads a batch manifest, applying defaults to every entry.
type ManifestLoader interface {
	LoadManifest(path string, defaults domain.ComparisonRequest) (domain.Manifest, error)
}
