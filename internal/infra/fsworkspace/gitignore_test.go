package fsworkspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureGitignore(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{
			name: "creates file",
			want: "# Oread\n.oread/\n*.act\n",
		},
		{
			name:     "appends to unterminated file",
			existing: ptr("node_modules/"),
			want:     "node_modules/\n\n# Oread\n.oread/\n*.act\n",
		},
		{
			name:     "keeps header and adds only missing",
			existing: ptr("node_modules/\n# Oread\n.oread/\n"),
			want:     "node_modules/\n# Oread\n.oread/\n\n*.act\n",
		},
		{
			name:     "equivalent spellings count as covered",
			existing: ptr("/.oread\n*.act\n"),
			want:     "/.oread\n*.act\n",
		},
		{
			name:     "glob form counts as covered",
			existing: ptr(".oread/**\n"),
			want:     ".oread/**\n\n# Oread\n*.act\n",
		},
		{
			name:     "negations and comments do not cover",
			existing: ptr("!*.act\n# .oread/\n"),
			want:     "!*.act\n# .oread/\n\n# Oread\n.oread/\n*.act\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatalf("write .gitignore: %v", err)
				}
			}

			if err := ensureGitignore(root); err != nil {
				t.Fatalf("ensureGitignore error: %v", err)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read .gitignore: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", b, tt.want)
			}
		})
	}
}

func TestEnsureGitignore_Idempotent(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		if err := ensureGitignore(root); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	b, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(b), ".oread/"); n != 1 {
		t.Fatalf("expected one .oread/ entry, got %d:\n%s", n, b)
	}
}

func TestPatternKey(t *testing.T) {
	for _, p := range []string{".oread", "/.oread", ".oread/", "/.oread/", ".oread/*", ".oread/**"} {
		if got := patternKey(p); got != ".oread" {
			t.Errorf("patternKey(%q) = %q", p, got)
		}
	}
}

func ptr(s string) *string { return &s }
