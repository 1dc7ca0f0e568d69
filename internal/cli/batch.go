package cli

import (
	"github.com/spf13/cobra"

	"github.com/jrjhealey/Oread/internal/infra/yamlmanifest"
	"github.com/jrjhealey/Oread/internal/ports"
	"github.com/jrjhealey/Oread/internal/usecase"
)

func batchCmd(g *globalOpts) *cobra.Command {
	var (
		jobs    int
		binary  string
		saveRun bool
		format  string
	)

	c := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Run every comparison listed in a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format, "pretty", "json", "markdown"); err != nil {
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

			var loader ports.ManifestLoader = yamlmanifest.NewLoader()
			m, err := loader.LoadManifest(args[0], ws.baseRequest())
			if err != nil {
				return err
			}

			uc := usecase.NewRunBatch(ws.comparison(binary, ws.store(saveRun)), usecase.WithBatchLogger(log))
			report, err := uc.Execute(cmd.Context(), m, jobs)
			if err != nil {
				return err
			}

			if err := printBatch(cmd.OutOrStdout(), report, format); err != nil {
				return err
			}
			if report.Failed() > 0 {
				return errBatchFailed
			}
			return nil
		},
	}

	c.Flags().IntVarP(&jobs, "jobs", "j", 1, "Comparisons to run concurrently (0 = one per CPU)")
	c.Flags().StringVar(&binary, "blastn", "", "blastn executable (default from config, else blastn on PATH)")
	c.Flags().BoolVar(&saveRun, "save-run", false, "Save a JSON run record per comparison under runs_dir")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|markdown")
	return c
}
