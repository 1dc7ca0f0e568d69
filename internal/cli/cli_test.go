package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/infra/blastn/blastntest"
	"github.com/jrjhealey/Oread/internal/infra/logger"
	"github.com/jrjhealey/Oread/internal/usecase"
)

const (
	oneRecord    = ">chr1\nACGTACGTAC\n"
	threeRecords = ">c1\nAAAA\n>c2\nCCCC\n>c3\nGGGG\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// runCLI executes the root command and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// --- command structure ---

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, expected := range []string{"compare", "batch", "inspect", "init", "version"} {
		if !names[expected] {
			t.Errorf("expected subcommand %q to be registered", expected)
		}
	}
	for _, flag := range []string{"verbose", "log-format", "log-file", "config"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent --%s flag", flag)
		}
	}
}

func TestCompareCmd_Flags(t *testing.T) {
	cmd := compareCmd(&globalOpts{})
	for _, flag := range []string{
		"subject", "query", "outdir", "out", "temp-dir", "blastn", "task", "evalue",
		"perc-identity", "strand", "culling-limit", "keep-temp", "timeout", "save-run", "format",
	} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag on compare command", flag)
		}
	}
	if cmd.Flags().ShorthandLookup("k") == nil || cmd.Flags().ShorthandLookup("s") == nil {
		t.Error("expected -k and -s shorthands")
	}
}

func TestInitCmd_Flags(t *testing.T) {
	cmd := initCmd()
	if cmd.Flags().Lookup("path") == nil {
		t.Error("expected --path flag on init command")
	}
	if cmd.Flags().Lookup("force") == nil {
		t.Error("expected --force flag on init command")
	}
}

// --- flag overlay ---

func TestCompareFlags_ApplyOnlyOverridesChangedFlags(t *testing.T) {
	f := &compareFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse([]string{"--evalue", "1e-3", "--strand", "MINUS", "-k", "--timeout", "2m"}); err != nil {
		t.Fatal(err)
	}

	req := domain.ComparisonRequest{
		Task: domain.TaskMegablast,
		Thresholds: domain.Thresholds{
			EValue:          10,
			PercentIdentity: 80,
			Strand:          domain.StrandBoth,
			CullingLimit:    5,
		},
	}
	if err := f.apply(fs, &req); err != nil {
		t.Fatalf("apply: %v", err)
	}

	want := domain.ComparisonRequest{
		Task: domain.TaskMegablast,
		Thresholds: domain.Thresholds{
			EValue:          1e-3,
			PercentIdentity: 80,
			Strand:          domain.StrandMinus,
			CullingLimit:    5,
		},
		KeepTemp: true,
		Timeout:  2 * time.Minute,
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareFlags_ApplyRejectsBadValues(t *testing.T) {
	cases := [][]string{
		{"--task", "tblastx"},
		{"--strand", "up"},
		{"--evalue", "0"},
		{"--perc-identity", "150"},
		{"--culling-limit", "-2"},
	}
	for _, args := range cases {
		f := &compareFlags{}
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		f.register(fs)
		if err := fs.Parse(args); err != nil {
			t.Fatal(err)
		}
		req := domain.ComparisonRequest{Task: domain.DefaultTask, Thresholds: domain.DefaultThresholds()}
		if err := f.apply(fs, &req); !errors.Is(err, domain.ErrInvalidParams) {
			t.Errorf("%v: expected invalid params, got %v", args, err)
		}
	}
}

// --- workspace resolution ---

func TestLoadWorkspace_ExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "oread.yaml", "oread:\n  paths:\n    temp_dir: scratch\n  defaults:\n    task: megablast\n")

	ws, err := loadWorkspace(cfgPath, logger.Discard())
	if err != nil {
		t.Fatalf("loadWorkspace: %v", err)
	}
	req := ws.baseRequest()
	if req.TempDir != filepath.Join(dir, "scratch") {
		t.Fatalf("temp dir should be anchored at the config dir, got %q", req.TempDir)
	}
	if req.Task != domain.TaskMegablast {
		t.Fatalf("expected config task, got %s", req.Task)
	}
}

func TestLoadWorkspace_ExplicitConfigMustExist(t *testing.T) {
	_, err := loadWorkspace(filepath.Join(t.TempDir(), "nope.yaml"), logger.Discard())
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestLoadWorkspace_DiscoversConfigUpward(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfgPath := writeFile(t, dir, "oread.yaml", "oread:\n  defaults:\n    task: megablast\n")
	nested := filepath.Join(dir, "data", "run1")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	ws, err := loadWorkspace("", logger.Discard())
	if err != nil {
		t.Fatalf("loadWorkspace: %v", err)
	}
	if ws.root != dir || ws.configPath != cfgPath {
		t.Fatalf("expected root=%s config=%s, got root=%s config=%s", dir, cfgPath, ws.root, ws.configPath)
	}
	if ws.cfg.Defaults.Task != domain.TaskMegablast {
		t.Fatalf("expected config task, got %s", ws.cfg.Defaults.Task)
	}
}

func TestLoadWorkspace_MarkerDirAnchorsRunsWithoutConfig(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "data")
	for _, p := range []string{filepath.Join(dir, ".oread", "runs"), nested} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(nested)

	ws, err := loadWorkspace("", logger.Discard())
	if err != nil {
		t.Fatalf("loadWorkspace: %v", err)
	}
	if ws.root != dir || ws.configPath != "" {
		t.Fatalf("expected marker root %s without config, got root=%s config=%q", dir, ws.root, ws.configPath)
	}
	if diff := cmp.Diff(domain.DefaultConfig(), ws.cfg); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

// --- end to end ---

func TestCompare_EndToEnd(t *testing.T) {
	bin, argsFile := blastntest.Install(t, blastntest.ModeOK)
	dir := t.TempDir()
	subject := writeFile(t, dir, "genomeA.fasta", threeRecords)
	query := writeFile(t, dir, "genomeB.fasta", oneRecord)
	cfg := writeFile(t, dir, "oread.yaml", "oread:\n  aligner:\n    binary: "+bin+"\n")
	outDir := filepath.Join(dir, "cmp")

	out, err := runCLI(t, "--config", cfg, "compare", "-s", subject, "-q", query, "-o", outDir, "-t", "dc-megablast", "--format", "json")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	var payload struct {
		Report domain.ComparisonReport `json:"report"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	rep := payload.Report
	if rep.Stage != domain.StageDone || rep.Outcome == nil {
		t.Fatalf("expected done with outcome, got %+v", rep)
	}
	if rep.Outcome.OutputPath != filepath.Join(outDir, "genomeA_vs_genomeB.act") {
		t.Fatalf("unexpected output path %s", rep.Outcome.OutputPath)
	}
	if len(rep.Removed) != 1 {
		t.Fatalf("expected the synthesized subject removed, got %v", rep.Removed)
	}
	if calls := blastntest.Invocations(t, argsFile); len(calls) != 1 {
		t.Fatalf("expected one blastn call, got %d", len(calls))
	}
}

func TestCompare_ConfigEnvReachesAligner(t *testing.T) {
	bin, _ := blastntest.Install(t, blastntest.ModeOK)
	dir := t.TempDir()
	subject := writeFile(t, dir, "a.fasta", oneRecord)
	query := writeFile(t, dir, "b.fasta", oneRecord)
	cfg := writeFile(t, dir, "oread.yaml", "oread:\n  aligner:\n    binary: "+bin+"\n    env:\n      FAKE_BLASTN_MODE: fail\n")

	_, err := runCLI(t, "--config", cfg, "compare", "-s", subject, "-q", query, "-o", filepath.Join(dir, "cmp"))
	if !errors.Is(err, domain.ErrAlignmentExecution) {
		t.Fatalf("expected the aligner to see the configured env and fail, got %v", err)
	}
}

func TestCompare_SaveRunWritesRecord(t *testing.T) {
	bin, _ := blastntest.Install(t, blastntest.ModeOK)
	dir := t.TempDir()
	subject := writeFile(t, dir, "a.fasta", oneRecord)
	query := writeFile(t, dir, "b.fasta", oneRecord)
	cfg := writeFile(t, dir, "oread.yaml", "oread:\n  aligner:\n    binary: "+bin+"\n  paths:\n    runs_dir: history\n")

	out, err := runCLI(t, "--config", cfg, "compare", "-s", subject, "-q", query, "--save-run")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, "Run ID:") {
		t.Fatalf("expected run id in output:\n%s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "history", "*_a-vs-b.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one run record, got %v", matches)
	}
}

func TestCompare_AlignerFailureIsAnError(t *testing.T) {
	bin, _ := blastntest.Install(t, blastntest.ModeFail)
	dir := t.TempDir()
	subject := writeFile(t, dir, "a.fasta", oneRecord)
	query := writeFile(t, dir, "b.fasta", oneRecord)

	out, err := runCLI(t, "compare", "-s", subject, "-q", query, "--blastn", bin)
	if !errors.Is(err, domain.ErrAlignmentExecution) {
		t.Fatalf("expected alignment execution error, got %v", err)
	}
	if !strings.Contains(out, "abort (at align)") {
		t.Fatalf("expected abort stage in output:\n%s", out)
	}
}

func TestCompare_RejectsUnknownFormatBeforeRunning(t *testing.T) {
	bin, argsFile := blastntest.Install(t, blastntest.ModeOK)
	dir := t.TempDir()
	subject := writeFile(t, dir, "a.fasta", oneRecord)

	_, err := runCLI(t, "compare", "-s", subject, "-q", subject, "--blastn", bin, "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
	if calls := blastntest.Invocations(t, argsFile); len(calls) != 0 {
		t.Fatal("blastn must not run with an invalid format")
	}
}

func TestBatch_EndToEnd(t *testing.T) {
	bin, _ := blastntest.Install(t, blastntest.ModeOK)
	dir := t.TempDir()
	writeFile(t, dir, "g/a.fasta", threeRecords)
	writeFile(t, dir, "g/b.fasta", oneRecord)
	writeFile(t, dir, "g/c.fasta", oneRecord)
	manifest := writeFile(t, dir, "batch.yaml", `outdir: out
comparisons:
  - subject: g/a.fasta
    query: g/b.fasta
  - subject: g/a.fasta
    query: g/c.fasta
  - subject: g/missing.fasta
    query: g/c.fasta
`)

	out, err := runCLI(t, "batch", manifest, "--blastn", bin, "-j", "2")
	if !errors.Is(err, errBatchFailed) {
		t.Fatalf("expected batch failure for the missing file, got %v", err)
	}
	if !strings.Contains(out, "1 failed") {
		t.Fatalf("expected summary footer, got:\n%s", out)
	}
	for _, name := range []string{"a_vs_b.act", "a_vs_c.act"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestInspect_ReportsCounts(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.fasta", oneRecord)
	many := writeFile(t, dir, "many.fasta", threeRecords)

	out, err := runCLI(t, "inspect", one, many, "--format", "json")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	var got []inspectionJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	want := []inspectionJSON{
		{Path: one, Count: domain.CountOne},
		{Path: many, Count: domain.CountMany},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inspect output (-want +got):\n%s", diff)
	}
}

func TestInspect_FailsOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.fasta", "")

	out, err := runCLI(t, "inspect", empty)
	if !errors.Is(err, domain.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
	if !strings.Contains(out, "error") {
		t.Fatalf("expected error row in table:\n%s", out)
	}
}

func TestInit_WritesTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	out, err := runCLI(t, "init", "--path", dir)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, dir) {
		t.Fatalf("expected path in output, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "oread.yaml")); err != nil {
		t.Fatalf("expected oread.yaml: %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "oread dev") {
		t.Fatalf("unexpected version output %q", out)
	}
}

// --- printers ---

func TestPrintComparison_UnknownFormat_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	if err := printComparison(&buf, domain.ComparisonReport{}, "", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPrintComparison_Pretty(t *testing.T) {
	start := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	rep := domain.ComparisonReport{
		Stage:  domain.StageDone,
		Params: domain.AlignmentParameters{Task: domain.TaskBlastn},
		Inspections: []domain.InspectionResult{
			{Role: domain.RoleSubject, Path: "/g/a.fa", Count: domain.CountMany},
		},
		Removed:   []string{"/g/a_1.fa"},
		Outcome:   &domain.AlignmentOutcome{OutputPath: "/g/a_vs_b.act", OutputBytes: 12},
		StartedAt: start,
		EndedAt:   start.Add(1500 * time.Millisecond),
	}

	var buf bytes.Buffer
	if err := printComparison(&buf, rep, "run-42", ""); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Subject:  /g/a.fa (many)", "Output:   /g/a_vs_b.act (12 bytes)", "Duration: 1.5s", "Run ID:   run-42", "Removed 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintBatch_Markdown(t *testing.T) {
	rep := domain.BatchReport{
		Items: []domain.BatchItem{
			{Index: 0, Request: domain.ComparisonRequest{SubjectPath: "a.fa", QueryPath: "b.fa"}, Report: domain.ComparisonReport{Stage: domain.StageDone}},
			{Index: 1, Request: domain.ComparisonRequest{SubjectPath: "c.fa", QueryPath: "d.fa"}, Report: domain.ComparisonReport{Stage: domain.StageAbort, AbortedAt: domain.StageInspectQuery}, Err: errors.New("boom")},
		},
	}
	var buf bytes.Buffer
	if err := printBatch(&buf, rep, "markdown"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "| Subject") || !strings.Contains(out, "FAIL at inspect_query") {
		t.Fatalf("unexpected markdown:\n%s", out)
	}
	if !strings.Contains(out, "#2: boom") {
		t.Fatalf("expected error detail:\n%s", out)
	}
}

func TestFirstInspectionError(t *testing.T) {
	boom := errors.New("boom")
	files := []usecase.InspectedFile{{Path: "a"}, {Path: "b", Err: boom}, {Path: "c", Err: errors.New("later")}}
	if err := firstInspectionError(files); err != boom {
		t.Fatalf("expected first error, got %v", err)
	}
}
