// Package blastntest provides a stand-in blastn executable for tests.
package blastntest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Behaviour of the fake aligner, selected through FAKE_BLASTN_MODE.
const (
	ModeOK       = "ok"
	ModeWarn     = "warn"
	ModeFail     = "fail"
	ModeStderr   = "stderr"
	ModeNoOutput = "no-output"
)

// Row is the single format 6 line the fake writes on success.
const Row = "q1\ts1\t100.00\t10\t0\t0\t1\t10\t1\t10\t1e-05\t20.0\n"

const script = `#!/bin/sh
if [ -n "$FAKE_BLASTN_ARGS" ]; then
  printf '%s\n' "$@" >> "$FAKE_BLASTN_ARGS"
  echo "--" >> "$FAKE_BLASTN_ARGS"
fi
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-out" ]; then out="$2"; fi
  shift
done
case "$FAKE_BLASTN_MODE" in
  fail)
    echo "BLAST query/options error: Invalid subject" >&2
    exit 3
    ;;
  stderr)
    echo "Error: something went sideways" >&2
    ;;
  warn)
    echo "Warning: [blastn] Examining 5 or more matches is recommended" >&2
    ;;
  no-output)
    exit 0
    ;;
esac
printf 'q1\ts1\t100.00\t10\t0\t0\t1\t10\t1\t10\t1e-05\t20.0\n' > "$out"
`

// Install writes the fake into a temp dir and returns its path. Calls are
// recorded in the returned args file, one argument per line and "--" after
// each invocation. Tests are skipped where /bin/sh is unavailable.
func Install(t *testing.T, mode string) (bin string, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake blastn needs a POSIX shell")
	}
	dir := t.TempDir()
	bin = filepath.Join(dir, "blastn")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake blastn: %v", err)
	}
	argsFile = filepath.Join(dir, "args.txt")
	t.Setenv("FAKE_BLASTN_MODE", mode)
	t.Setenv("FAKE_BLASTN_ARGS", argsFile)
	return bin, argsFile
}

// Invocations parses the args file written by the fake.
func Invocations(t *testing.T, argsFile string) [][]string {
	t.Helper()
	b, err := os.ReadFile(argsFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read fake blastn args: %v", err)
	}
	var (
		out [][]string
		cur []string
	)
	for _, line := range splitLines(string(b)) {
		if line == "--" {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, line)
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
