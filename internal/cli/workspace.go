package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/infra/blastn"
	"github.com/jrjhealey/Oread/internal/infra/fasta"
	"github.com/jrjhealey/Oread/internal/infra/runstore"
	"github.com/jrjhealey/Oread/internal/infra/workspacefinder"
	"github.com/jrjhealey/Oread/internal/ports"
	"github.com/jrjhealey/Oread/internal/usecase"
)

// workspaceCtx is the resolved configuration plus the adapters built from it.
type workspaceCtx struct {
	// root is where relative runs_dir/temp_dir values are anchored.
	root string
	// configPath is empty when no oread.yaml was found.
	configPath string
	cfg        domain.Config

	log *slog.Logger
}

// loadWorkspace resolves configuration: an explicit --config file must
// exist; otherwise the enclosing workspace is searched upward from the
// working directory. A workspace marked only by .oread/, or no workspace at
// all, runs on defaults.
func loadWorkspace(configFlag string, log *slog.Logger) (*workspaceCtx, error) {
	if p := strings.TrimSpace(configFlag); p != "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		cfg, err := workspacefinder.LoadConfigFile(abs)
		if err != nil {
			return nil, err
		}
		log.Debug("config.loaded", "path", abs)
		return &workspaceCtx{root: filepath.Dir(abs), configPath: abs, cfg: cfg, log: log}, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	var locator ports.ConfigLocator = workspacefinder.NewFinder()
	loc, err := locator.Locate(wd)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			log.Debug("config.defaults", "searched_from", wd)
			return &workspaceCtx{root: wd, cfg: domain.DefaultConfig(), log: log}, nil
		}
		return nil, err
	}
	if loc.ConfigPath == "" {
		log.Debug("config.defaults", "workspace", loc.Root)
		return &workspaceCtx{root: loc.Root, cfg: domain.DefaultConfig(), log: log}, nil
	}

	cfg, err := workspacefinder.LoadConfigFile(loc.ConfigPath)
	if err != nil {
		return nil, err
	}
	log.Debug("config.loaded", "path", loc.ConfigPath)
	return &workspaceCtx{root: loc.Root, configPath: loc.ConfigPath, cfg: cfg, log: log}, nil
}

// anchor makes a config-relative path absolute.
func (ws *workspaceCtx) anchor(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ws.root, p)
}

// baseRequest is a ComparisonRequest carrying the configured defaults.
func (ws *workspaceCtx) baseRequest() domain.ComparisonRequest {
	return domain.ComparisonRequest{
		TempDir:    ws.anchor(ws.cfg.Paths.TempDir),
		Task:       ws.cfg.Defaults.Task,
		Thresholds: ws.cfg.Defaults.Thresholds,
		KeepTemp:   ws.cfg.Defaults.KeepTemp,
		Timeout:    ws.cfg.Aligner.Timeout,
	}
}

func (ws *workspaceCtx) inspector() *fasta.Inspector {
	return fasta.NewInspector(fasta.WithInspectorLogger(ws.log))
}

// comparison wires the pipeline. A nil store disables run records.
func (ws *workspaceCtx) comparison(binary string, store ports.RunStore) *usecase.RunComparison {
	if strings.TrimSpace(binary) == "" {
		binary = ws.cfg.Aligner.Binary
	}
	opts := []usecase.Option{usecase.WithLogger(ws.log)}
	if store != nil {
		opts = append(opts, usecase.WithStore(store))
	}
	return usecase.NewRunComparison(
		ws.inspector(),
		fasta.NewSynthesizer(fasta.WithSynthesizerLogger(ws.log)),
		blastn.New(binary, blastn.WithLogger(ws.log), blastn.WithEnv(ws.cfg.Aligner.Env...)),
		opts...,
	)
}

// store returns the run store when saving is enabled by config or flag.
func (ws *workspaceCtx) store(saveFlag bool) ports.RunStore {
	if !saveFlag && !ws.cfg.Runs.Save {
		return nil
	}
	return runstore.NewJSONStore(ws.root, ws.cfg, runstore.WithIndex(true))
}

// errBatchFailed is returned after the batch summary has been printed.
var errBatchFailed = errors.New("one or more comparisons failed")
