package fsworkspace

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/ports"
)

type Initializer struct{}

func NewInitializer() *Initializer {
	return &Initializer{}
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// Init writes the template files under spec.Root. Existing files are left
// alone unless force is set.
func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	root := filepath.Clean(spec.Root)

	dirs := []string{
		root,
		filepath.Join(root, ".oread", "runs"),
		filepath.Join(root, ".oread", "logs"),
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return initErr(d, err)
		}
	}

	if err := ensureGitignore(root); err != nil {
		return initErr(filepath.Join(root, ".gitignore"), err)
	}

	return fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, "templates/")
		dst := filepath.Join(root, filepath.FromSlash(rel))

		if !force {
			if _, statErr := os.Stat(dst); statErr == nil {
				return nil
			}
		}

		b, err := fs.ReadFile(templatesFS, p)
		if err != nil {
			return initErr(dst, err)
		}
		if err := os.WriteFile(dst, b, 0o644); err != nil {
			return initErr(dst, err)
		}
		return nil
	})
}

func initErr(path string, err error) error {
	return &domain.OpError{
		Op:   "fsworkspace.init",
		Kind: domain.KindExecution,
		Path: path,
		Err:  err,
	}
}

const gitignoreHeader = "# Oread"

// gitignoreEntries keep run records, logs and comparison outputs out of
// version control.
var gitignoreEntries = []string{".oread/", "*.act"}

// ensureGitignore appends the entries an existing .gitignore does not
// already cover. Comments and negations never count as coverage.
func ensureGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	covered := map[string]bool{}
	hasHeader := false
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == gitignoreHeader:
			hasHeader = true
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, "!"):
		default:
			covered[patternKey(line)] = true
		}
	}

	var missing []string
	for _, e := range gitignoreEntries {
		if !covered[patternKey(e)] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var out bytes.Buffer
	out.Write(b)
	if len(b) > 0 {
		if !bytes.HasSuffix(b, []byte("\n")) {
			out.WriteByte('\n')
		}
		out.WriteByte('\n')
	}
	if !hasHeader {
		out.WriteString(gitignoreHeader + "\n")
	}
	for _, e := range missing {
		out.WriteString(e + "\n")
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// patternKey folds gitignore spellings that ignore the same top-level path:
// ".oread", "/.oread/", ".oread/*" and ".oread/**" share a key.
func patternKey(p string) string {
	p = strings.TrimPrefix(p, "/")
	for _, suffix := range []string{"/**", "/*", "/"} {
		p = strings.TrimSuffix(p, suffix)
	}
	return p
}
