package ports

import "github.com/jrjhealey/Oread/internal/domain"

// ConfigLocator finds the workspace enclosing an arbitrary directory.
type ConfigLocator interface {
	Locate(startDir string) (domain.WorkspaceLocation, error)
}
