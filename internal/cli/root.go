package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jrjhealey/Oread/internal/infra/logger"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// globalOpts holds the persistent flags shared by every subcommand.
type globalOpts struct {
	verbose    int
	logFormat  string
	logFile    string
	configPath string
}

// newLogger builds the run-scoped logger; callers must invoke the cleanup.
func (g *globalOpts) newLogger(stderr io.Writer) (*slog.Logger, func() error, error) {
	return logger.New(logger.Config{
		Verbosity: g.verbose,
		Format:    g.logFormat,
		File:      g.logFile,
		Console:   stderr,
	})
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}

	cmd := &cobra.Command{
		Use:   "oread",
		Short: "Prepare genome pairs for ACT with blastn",
		Long: "Oread runs blastn on a subject/query pair of FASTA files and writes a tabular\n" +
			"comparison file ACT can load. Multi-record inputs are concatenated into a single\n" +
			"temporary record first.",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.CountVarP(&g.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format on stderr: text|json")
	pf.StringVar(&g.logFile, "log-file", "", "Also write JSON logs to this file")
	pf.StringVar(&g.configPath, "config", "", "Path to oread.yaml (default: search upward from the working directory)")

	cmd.AddCommand(
		compareCmd(g),
		batchCmd(g),
		inspectCmd(g),
		initCmd(),
		versionCmd(),
	)
	return cmd
}
