package workspacefinder

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

// MarkerDir is created by `oread init` and identifies a workspace that has
// no oread.yaml of its own.
const MarkerDir = ".oread"

// Finder walks upward from a directory until it meets a config file or the
// marker directory. A config file wins over a marker in the same directory.
type Finder struct {
	// Names are tried in order in every directory.
	Names  []string
	Marker string
}

var _ ports.ConfigLocator = (*Finder)(nil)

func NewFinder() *Finder {
	return &Finder{Names: []string{ConfigFile, "oread.yml"}, Marker: MarkerDir}
}

func (f *Finder) Locate(startDir string) (domain.WorkspaceLocation, error) {
	const op = "workspacefinder.locate"
	if startDir == "" {
		return domain.WorkspaceLocation{}, &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: errors.New("startDir is empty")}
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return domain.WorkspaceLocation{}, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: startDir, Err: err}
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for cur := filepath.Clean(abs); ; {
		if loc, ok := f.probe(cur); ok {
			return loc, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return domain.WorkspaceLocation{}, &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: abs, Err: domain.ErrNotFound}
		}
		cur = parent
	}
}

func (f *Finder) probe(dir string) (domain.WorkspaceLocation, bool) {
	for _, name := range f.Names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return domain.WorkspaceLocation{Root: dir, ConfigPath: p}, true
		}
	}
	if f.Marker != "" {
		if info, err := os.Stat(filepath.Join(dir, f.Marker)); err == nil && info.IsDir() {
			return domain.WorkspaceLocation{Root: dir}, true
		}
	}
	return domain.WorkspaceLocation{}, false
}
