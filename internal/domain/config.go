package domain

import "time"

// Config represents the Oread configuration loaded from oread.yaml.
type Config struct {
	Aligner  AlignerConfig
	Defaults DefaultsConfig
	Paths    PathsConfig
	Runs     RunsConfig
}

type AlignerConfig struct {
	Binary string
	// Timeout of 0 means the aligner runs to completion.
	Timeout time.Duration
	// Env holds extra KEY=VALUE pairs for the aligner process, sorted by key.
	Env []string
}

type DefaultsConfig struct {
	Task       TaskMode
	Thresholds Thresholds
	KeepTemp   bool
}

type PathsConfig struct {
	TempDir string
	RunsDir string
}

type RunsConfig struct {
	Save bool
}

// DefaultConfig provides sane defaults if oread.yaml is missing or partial.
func DefaultConfig() Config {
	return Config{
		Aligner: AlignerConfig{
			Binary: "blastn",
		},
		Defaults: DefaultsConfig{
			Task:       DefaultTask,
			Thresholds: DefaultThresholds(),
		},
		Paths: PathsConfig{
			RunsDir: ".oread/runs",
		},
	}
}

// WorkspaceSpec describes where `oread init` writes its files.
type WorkspaceSpec struct {
	Root string
}

// WorkspaceLocation is a discovered workspace. ConfigPath is empty when the
// root was recognised only by its .oread directory.
type WorkspaceLocation struct {
	Root       string
	ConfigPath string
}
