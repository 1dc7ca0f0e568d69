package yamlmanifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
	"gopkg.in/yaml.v3"
)

// Loader reads batch manifests. Relative paths inside a manifest are
// resolved against the manifest's own directory.
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

var _ ports.ManifestLoader = (*Loader)(nil)

func (l *Loader) LoadManifest(path string, defaults domain.ComparisonRequest) (domain.Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.load",
			Kind: kind,
			Path: path,
			Err:  err,
		}
	}

	var ym yamlManifest
	if err := yaml.Unmarshal(b, &ym); err != nil {
		return domain.Manifest{}, &domain.OpError{
			Op:   "yamlmanifest.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	return mapAndValidate(path, ym, defaults)
}

type yamlManifest struct {
	OutDir      string           `yaml:"outdir"`
	TempDir     string           `yaml:"temp_dir"`
	Defaults    yamlOverrides    `yaml:"defaults"`
	Comparisons []yamlComparison `yaml:"comparisons"`
}

type yamlComparison struct {
	Subject string `yaml:"subject"`
	Query   string `yaml:"query"`
	Out     string `yaml:"out"`
	OutDir  string `yaml:"outdir"`

	yamlOverrides `yaml:",inline"`
}

type yamlOverrides struct {
	Task         string   `yaml:"task"`
	EValue       *float64 `yaml:"evalue"`
	PercIdentity *int     `yaml:"perc_identity"`
	Strand       string   `yaml:"strand"`
	CullingLimit *int     `yaml:"culling_limit"`
	KeepTemp     *bool    `yaml:"keep_temp"`
	Timeout      string   `yaml:"timeout"`
}

func mapAndValidate(path string, ym yamlManifest, defaults domain.ComparisonRequest) (domain.Manifest, error) {
	if len(ym.Comparisons) == 0 {
		return domain.Manifest{}, invalidField(path, "comparisons", "at least one comparison is required")
	}

	base := filepath.Dir(path)

	shared := defaults
	if err := ym.Defaults.applyTo(&shared); err != nil {
		return domain.Manifest{}, invalidField(path, "defaults", err.Error())
	}
	if strings.TrimSpace(ym.OutDir) != "" {
		shared.OutputDir = resolve(base, ym.OutDir)
	}
	if strings.TrimSpace(ym.TempDir) != "" {
		shared.TempDir = resolve(base, ym.TempDir)
	}

	m := domain.Manifest{
		Path:        path,
		Comparisons: make([]domain.ComparisonRequest, 0, len(ym.Comparisons)),
	}

	for i, c := range ym.Comparisons {
		fieldPrefix := fmt.Sprintf("comparisons[%d]", i)

		if strings.TrimSpace(c.Subject) == "" {
			return domain.Manifest{}, invalidField(path, fieldPrefix+".subject", "subject is required")
		}
		if strings.TrimSpace(c.Query) == "" {
			return domain.Manifest{}, invalidField(path, fieldPrefix+".query", "query is required")
		}

		req := shared
		req.SubjectPath = resolve(base, c.Subject)
		req.QueryPath = resolve(base, c.Query)
		req.OutputPath = ""
		if strings.TrimSpace(c.Out) != "" {
			req.OutputPath = resolve(base, c.Out)
		}
		if strings.TrimSpace(c.OutDir) != "" {
			req.OutputDir = resolve(base, c.OutDir)
		}
		if err := c.yamlOverrides.applyTo(&req); err != nil {
			return domain.Manifest{}, invalidField(path, fieldPrefix, err.Error())
		}
		if err := req.Validate(); err != nil {
			return domain.Manifest{}, invalidField(path, fieldPrefix, err.Error())
		}

		m.Comparisons = append(m.Comparisons, req)
	}

	return m, nil
}

func (o yamlOverrides) applyTo(req *domain.ComparisonRequest) error {
	if strings.TrimSpace(o.Task) != "" {
		task, err := domain.ParseTaskMode(o.Task)
		if err != nil {
			return err
		}
		req.Task = task
	}
	if strings.TrimSpace(o.Strand) != "" {
		strand, err := domain.ParseStrand(o.Strand)
		if err != nil {
			return err
		}
		req.Thresholds.Strand = strand
	}
	if o.EValue != nil {
		req.Thresholds.EValue = *o.EValue
	}
	if o.PercIdentity != nil {
		req.Thresholds.PercentIdentity = *o.PercIdentity
	}
	if o.CullingLimit != nil {
		req.Thresholds.CullingLimit = *o.CullingLimit
	}
	if o.KeepTemp != nil {
		req.KeepTemp = *o.KeepTemp
	}
	if strings.TrimSpace(o.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(o.Timeout))
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		req.Timeout = d
	}
	return nil
}

func resolve(base, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "yamlmanifest.validate",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s", field, msg),
	}
}
