package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

const defaultRunsDir = ".oread/runs"

type JSONStore struct {
	rootDir     string
	runsDirName string
	writeIndex  bool
	now         func() time.Time

	// mu serializes file name selection and index appends.
	mu sync.Mutex
}

type Option func(*JSONStore)

// WithIndex enables a JSONL index next to the records: <runs_dir>/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

// NewJSONStore stores records under root/cfg.Paths.RunsDir. An absolute
// RunsDir is used as is.
func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	runsDir := cfg.Paths.RunsDir
	if strings.TrimSpace(runsDir) == "" {
		runsDir = defaultRunsDir
	}

	s := &JSONStore{
		rootDir:     root,
		runsDirName: runsDir,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.RunStore = (*JSONStore)(nil)

// Dir is the directory records are written to.
func (s *JSONStore) Dir() string {
	if filepath.IsAbs(s.runsDirName) {
		return filepath.Clean(s.runsDirName)
	}
	return filepath.Join(s.rootDir, s.runsDirName)
}

func (s *JSONStore) SaveRun(rec domain.RunRecord) (string, error) {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	ts := rec.Report.StartedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	toSave := rec
	if toSave.Report.StartedAt.IsZero() {
		toSave.Report.StartedAt = ts
	}

	slug := slugify(domain.FileStem(rec.SubjectPath) + "-vs-" + domain.FileStem(rec.QueryPath))
	if slug == "" || slug == "vs" {
		slug = "run"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := fmt.Sprintf("%s_%s", ts.Format("20060102T150405Z"), slug)
	toSave.ID = base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, toSave.ID+".json")); err != nil {
			break
		}
		toSave.ID = fmt.Sprintf("%s_%d", base, n)
	}
	filename := toSave.ID + ".json"
	path := filepath.Join(dir, filename)

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "runstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	// Atomic-ish write: tmp then rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "runstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = s.appendIndex(dir, filename, toSave)
	}

	return toSave.ID, nil
}

func (s *JSONStore) appendIndex(dir, filename string, rec domain.RunRecord) error {
	type idx struct {
		ID        string       `json:"id"`
		File      string       `json:"file"`
		Subject   string       `json:"subject"`
		Query     string       `json:"query"`
		Stage     domain.Stage `json:"stage"`
		Output    string       `json:"output,omitempty"`
		Failed    bool         `json:"failed"`
		StartedAt time.Time    `json:"started_at"`
	}
	entry := idx{
		ID:        rec.ID,
		File:      filename,
		Subject:   rec.SubjectPath,
		Query:     rec.QueryPath,
		Stage:     rec.Report.Stage,
		Failed:    rec.Error != "",
		StartedAt: rec.Report.StartedAt,
	}
	if rec.Report.Outcome != nil {
		entry.Output = rec.Report.Outcome.OutputPath
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	indexPath := filepath.Join(dir, "index.jsonl")
	f, err := os.OpenFile(indexPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			lastDash = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
