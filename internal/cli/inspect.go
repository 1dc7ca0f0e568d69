package cli

import (
	"github.com/spf13/cobra"

	"github.com/jrjhealey/Oread/internal/infra/fasta"
	"github.com/jrjhealey/Oread/internal/usecase"
)

func inspectCmd(g *globalOpts) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Report whether FASTA files hold one or many records (no alignment)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format, "pretty", "json", "markdown"); err != nil {
				return err
			}
			log, cleanup, err := g.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			inspector := fasta.NewInspector(fasta.WithInspectorLogger(log))
			files, err := usecase.NewInspectSequences(inspector).Execute(cmd.Context(), args)
			if perr := printInspections(cmd.OutOrStdout(), files, format); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			return firstInspectionError(files)
		},
	}

	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|markdown")
	return c
}

func firstInspectionError(files []usecase.InspectedFile) error {
	for _, f := range files {
		if f.Err != nil {
			return f.Err
		}
	}
	return nil
}
