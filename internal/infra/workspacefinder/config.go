package workspacefinder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jrjhealey/Oread/internal/domain"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the file name searched for when locating a workspace.
const ConfigFile = "oread.yaml"

// LoadConfig loads oread.yaml from the workspace root and applies defaults.
// When the file is missing the defaults are returned together with a KindNotFound error.
func LoadConfig(root string) (domain.Config, error) {
	return LoadConfigFile(filepath.Join(root, ConfigFile))
}

// LoadConfigFile is LoadConfig for an explicit file path (--config).
func LoadConfigFile(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var y yamlConfig
	if err := yaml.Unmarshal(b, &y); err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := apply(&cfg, y); err != nil {
		return domain.DefaultConfig(), &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

// apply copies parsed values on top of defaults.
func apply(cfg *domain.Config, y yamlConfig) error {
	a := y.Oread.Aligner
	if strings.TrimSpace(a.Binary) != "" {
		cfg.Aligner.Binary = strings.TrimSpace(a.Binary)
	}
	if strings.TrimSpace(a.Timeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(a.Timeout))
		if err != nil {
			return invalidField("aligner.timeout", err)
		}
		if d < 0 {
			return invalidField("aligner.timeout", fmt.Errorf("must not be negative"))
		}
		cfg.Aligner.Timeout = d
	}
	if len(a.Env) > 0 {
		keys := make([]string, 0, len(a.Env))
		for k := range a.Env {
			if k == "" || strings.ContainsAny(k, "= ") {
				return invalidField("aligner.env", fmt.Errorf("invalid variable name %q", k))
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cfg.Aligner.Env = append(cfg.Aligner.Env, k+"="+a.Env[k])
		}
	}

	d := y.Oread.Defaults
	if strings.TrimSpace(d.Task) != "" {
		task, err := domain.ParseTaskMode(d.Task)
		if err != nil {
			return invalidField("defaults.task", err)
		}
		cfg.Defaults.Task = task
	}
	if strings.TrimSpace(d.Strand) != "" {
		strand, err := domain.ParseStrand(d.Strand)
		if err != nil {
			return invalidField("defaults.strand", err)
		}
		cfg.Defaults.Thresholds.Strand = strand
	}
	if d.EValue != nil {
		cfg.Defaults.Thresholds.EValue = *d.EValue
	}
	if d.PercIdentity != nil {
		cfg.Defaults.Thresholds.PercentIdentity = *d.PercIdentity
	}
	if d.CullingLimit != nil {
		cfg.Defaults.Thresholds.CullingLimit = *d.CullingLimit
	}
	if d.KeepTemp != nil {
		cfg.Defaults.KeepTemp = *d.KeepTemp
	}
	if err := cfg.Defaults.Thresholds.Validate(); err != nil {
		return invalidField("defaults", err)
	}

	if y.Oread.Paths.TempDir != "" {
		cfg.Paths.TempDir = y.Oread.Paths.TempDir
	}
	if y.Oread.Paths.RunsDir != "" {
		cfg.Paths.RunsDir = y.Oread.Paths.RunsDir
	}
	if y.Oread.Runs.Save != nil {
		cfg.Runs.Save = *y.Oread.Runs.Save
	}
	return nil
}

func invalidField(field string, err error) error {
	return fmt.Errorf("field %s: %w", field, err)
}

type yamlConfig struct {
	Oread struct {
		Aligner struct {
			Binary  string            `yaml:"binary"`
			Timeout string            `yaml:"timeout"`
			Env     map[string]string `yaml:"env"`
		} `yaml:"aligner"`

		Defaults struct {
			Task         string   `yaml:"task"`
			EValue       *float64 `yaml:"evalue"`
			PercIdentity *int     `yaml:"perc_identity"`
			Strand       string   `yaml:"strand"`
			CullingLimit *int     `yaml:"culling_limit"`
			KeepTemp     *bool    `yaml:"keep_temp"`
		} `yaml:"defaults"`

		Paths struct {
			TempDir string `yaml:"temp_dir"`
			RunsDir string `yaml:"runs_dir"`
		} `yaml:"paths"`

		Runs struct {
			Save *bool `yaml:"save"`
		} `yaml:"runs"`
	} `yaml:"oread"`
}
