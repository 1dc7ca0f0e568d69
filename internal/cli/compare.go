package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jrjhealey/Oread/internal/domain"
)

// compareFlags mirrors the comparison parameters. Values only override the
// configuration when the flag was set explicitly.
type compareFlags struct {
	subject string
	query   string
	outDir  string
	out     string
	tempDir string
	binary  string

	task         string
	evalue       float64
	percIdentity int
	strand       string
	cullingLimit int
	keepTemp     bool
	timeout      time.Duration

	saveRun bool
	format  string
}

func (f *compareFlags) register(fs *pflag.FlagSet) {
	def := domain.DefaultConfig()

	fs.StringVarP(&f.outDir, "outdir", "o", "", "Directory for the .act file (default: the subject's directory)")
	fs.StringVar(&f.out, "out", "", "Exact output file path (overrides --outdir)")
	fs.StringVar(&f.tempDir, "temp-dir", "", "Directory for synthesized files (default: next to the output)")
	fs.StringVar(&f.binary, "blastn", "", "blastn executable (default from config, else blastn on PATH)")

	fs.StringVarP(&f.task, "task", "t", string(def.Defaults.Task), "blastn task: megablast|dc-megablast|blastn")
	fs.Float64Var(&f.evalue, "evalue", def.Defaults.Thresholds.EValue, "Expectation value threshold")
	fs.IntVar(&f.percIdentity, "perc-identity", def.Defaults.Thresholds.PercentIdentity, "Minimum percent identity (0-100)")
	fs.StringVar(&f.strand, "strand", string(def.Defaults.Thresholds.Strand), "Query strand: both|plus|minus")
	fs.IntVar(&f.cullingLimit, "culling-limit", def.Defaults.Thresholds.CullingLimit, "Culling limit (0 disables)")
	fs.BoolVarP(&f.keepTemp, "keep-temp", "k", def.Defaults.KeepTemp, "Keep synthesized temporary files")
	fs.DurationVar(&f.timeout, "timeout", def.Aligner.Timeout, "Abort blastn after this long (0 waits)")
}

// apply overlays explicitly set flags on req.
func (f *compareFlags) apply(fs *pflag.FlagSet, req *domain.ComparisonRequest) error {
	if fs.Changed("outdir") {
		req.OutputDir = f.outDir
	}
	if fs.Changed("out") {
		req.OutputPath = f.out
	}
	if fs.Changed("temp-dir") {
		req.TempDir = f.tempDir
	}
	if fs.Changed("task") {
		task, err := domain.ParseTaskMode(f.task)
		if err != nil {
			return err
		}
		req.Task = task
	}
	if fs.Changed("strand") {
		strand, err := domain.ParseStrand(f.strand)
		if err != nil {
			return err
		}
		req.Thresholds.Strand = strand
	}
	if fs.Changed("evalue") {
		req.Thresholds.EValue = f.evalue
	}
	if fs.Changed("perc-identity") {
		req.Thresholds.PercentIdentity = f.percIdentity
	}
	if fs.Changed("culling-limit") {
		req.Thresholds.CullingLimit = f.cullingLimit
	}
	if fs.Changed("keep-temp") {
		req.KeepTemp = f.keepTemp
	}
	if fs.Changed("timeout") {
		req.Timeout = f.timeout
	}
	return req.Thresholds.Validate()
}

func compareCmd(g *globalOpts) *cobra.Command {
	f := &compareFlags{}

	c := &cobra.Command{
		Use:   "compare",
		Short: "Run blastn on a subject/query pair and write an ACT comparison file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validFormat(f.format, "pretty", "json"); err != nil {
				return err
			}
			log, cleanup, err := g.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			ws, err := loadWorkspace(g.configPath, log)
			if err != nil {
				return err
			}

			req := ws.baseRequest()
			req.SubjectPath = f.subject
			req.QueryPath = f.query
			if err := f.apply(cmd.Flags(), &req); err != nil {
				return err
			}

			uc := ws.comparison(f.binary, ws.store(f.saveRun))
			report, runID, err := uc.Execute(cmd.Context(), req)
			if perr := printComparison(cmd.OutOrStdout(), report, runID, f.format); perr != nil {
				return perr
			}
			return err
		},
	}

	fs := c.Flags()
	fs.StringVarP(&f.subject, "subject", "s", "", "Subject FASTA file (required)")
	fs.StringVarP(&f.query, "query", "q", "", "Query FASTA file (required)")
	f.register(fs)
	fs.BoolVar(&f.saveRun, "save-run", false, "Save a JSON run record under runs_dir")
	fs.StringVar(&f.format, "format", "pretty", "Output format: pretty|json")

	_ = c.MarkFlagRequired("subject")
	_ = c.MarkFlagRequired("query")
	return c
}

func validFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (expected %s)", format, strings.Join(allowed, "|"))
}
