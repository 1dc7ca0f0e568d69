package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jrjhealey/Oread/internal/domain"
	"github.com/jrjhealey/Oread/internal/usecase"
)

func printComparison(w io.Writer, rep domain.ComparisonReport, runID string, format string) error {
	switch format {
	case "json":
		payload := map[string]any{
			"run_id": runID,
			"report": rep,
		}
		return writeJSON(w, payload)
	case "pretty", "":
		printPrettyComparison(w, rep, runID)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printPrettyComparison(w io.Writer, rep domain.ComparisonReport, runID string) {
	for _, in := range rep.Inspections {
		fmt.Fprintf(w, "%-9s %s (%s)\n", label(in.Role), in.Path, in.Count)
	}
	for _, s := range rep.Synthesized {
		fmt.Fprintf(w, "  %s synthesized: %s (%d records, %d bp)\n", s.Role, s.Path, s.Records, s.BodyLength)
	}

	if rep.Stage == domain.StageAbort {
		fmt.Fprintf(w, "Stage:    abort (at %s)\n", rep.AbortedAt)
	} else {
		fmt.Fprintf(w, "Stage:    %s\n", rep.Stage)
	}
	if rep.Params.Task != "" {
		fmt.Fprintf(w, "Task:     %s\n", rep.Params.Task)
	}
	if rep.Outcome != nil {
		fmt.Fprintf(w, "Output:   %s (%d bytes)\n", rep.Outcome.OutputPath, rep.Outcome.OutputBytes)
	}
	fmt.Fprintf(w, "Duration: %s\n", duration(rep.StartedAt, rep.EndedAt))
	if runID != "" {
		fmt.Fprintf(w, "Run ID:   %s\n", runID)
	}

	if len(rep.Removed) > 0 {
		fmt.Fprintf(w, "Removed %d temporary file(s)\n", len(rep.Removed))
	}
	for _, p := range rep.Retained {
		fmt.Fprintf(w, "  kept: %s\n", p)
	}
	for _, p := range rep.Missing {
		fmt.Fprintf(w, "  already gone: %s\n", p)
	}
}

type batchItemJSON struct {
	Index   int                     `json:"index"`
	Subject string                  `json:"subject"`
	Query   string                  `json:"query"`
	RunID   string                  `json:"run_id,omitempty"`
	Report  domain.ComparisonReport `json:"report"`
	Error   string                  `json:"error,omitempty"`
}

func printBatch(w io.Writer, rep domain.BatchReport, format string) error {
	if format == "json" {
		items := make([]batchItemJSON, 0, len(rep.Items))
		for _, it := range rep.Items {
			j := batchItemJSON{
				Index:   it.Index,
				Subject: it.Request.SubjectPath,
				Query:   it.Request.QueryPath,
				RunID:   it.RunID,
				Report:  it.Report,
			}
			if it.Err != nil {
				j.Error = it.Err.Error()
			}
			items = append(items, j)
		}
		return writeJSON(w, map[string]any{
			"items":      items,
			"failed":     rep.Failed(),
			"started_at": rep.StartedAt,
			"ended_at":   rep.EndedAt,
		})
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "Subject", "Query", "Status", "Output", "Temp", "Time"})
	for _, it := range rep.Items {
		status := "ok"
		output := ""
		if it.Err != nil {
			status = "FAIL at " + string(it.Report.AbortedAt)
		}
		if it.Report.Outcome != nil {
			output = it.Report.Outcome.OutputPath
		}
		t.AppendRow(table.Row{
			it.Index + 1,
			it.Request.SubjectPath,
			it.Request.QueryPath,
			status,
			output,
			tempSummary(it.Report),
			duration(it.Report.StartedAt, it.Report.EndedAt),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d failed", rep.Failed()), "", "", duration(rep.StartedAt, rep.EndedAt)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	render(w, t, format)

	for _, it := range rep.Items {
		if it.Err != nil {
			fmt.Fprintf(w, "\n#%d: %v\n", it.Index+1, it.Err)
		}
	}
	return nil
}

type inspectionJSON struct {
	Path       string             `json:"path"`
	Count      domain.RecordCount `json:"count,omitempty"`
	Compressed bool               `json:"compressed,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func printInspections(w io.Writer, files []usecase.InspectedFile, format string) error {
	if format == "json" {
		out := make([]inspectionJSON, 0, len(files))
		for _, f := range files {
			j := inspectionJSON{Path: f.Path, Count: f.Result.Count, Compressed: f.Result.Compressed}
			if f.Err != nil {
				j.Error = f.Err.Error()
			}
			out = append(out, j)
		}
		return writeJSON(w, out)
	}

	t := newTable()
	t.AppendHeader(table.Row{"File", "Records", "Synthesis"})
	for _, f := range files {
		if f.Err != nil {
			t.AppendRow(table.Row{f.Path, "error", f.Err.Error()})
			continue
		}
		synth := "no"
		if f.Result.NeedsSynthesis() {
			synth = "yes"
		}
		t.AppendRow(table.Row{f.Path, f.Result.Count, synth})
	}
	render(w, t, format)
	return nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	// Paths are case sensitive; keep headers and footers as written.
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func render(w io.Writer, t table.Writer, format string) {
	if format == "markdown" {
		fmt.Fprintln(w, t.RenderMarkdown())
		return
	}
	fmt.Fprintln(w, t.Render())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func tempSummary(rep domain.ComparisonReport) string {
	switch {
	case len(rep.Retained) > 0:
		return fmt.Sprintf("%d kept", len(rep.Retained))
	case len(rep.Removed) > 0:
		return fmt.Sprintf("%d removed", len(rep.Removed))
	default:
		return "-"
	}
}

func duration(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Round(time.Millisecond)
}

func label(r domain.Role) string {
	switch r {
	case domain.RoleSubject:
		return "Subject:"
	case domain.RoleQuery:
		return "Query:"
	default:
		return string(r) + ":"
	}
}
