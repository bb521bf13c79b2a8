package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"tsbench/internal/bench"
)

var (
	reportFile     string
	reportMarkdown bool
)

var (
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	reportErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	reportOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a result set",
	Long: `Loads a saved result set and prints one row per (project, target) pair:
full and incremental wall times, their ratio, and the diagnostic count.
The ratio is reported as measured; the harness never verifies that the
second build actually reused cached state.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFile, "file", "", "Result-set path (default <logs>/results.json)")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "Render the summary as markdown in the terminal")
}

// reportRow pairs the full and incremental records of one target.
type reportRow struct {
	Project string
	Target  string
	Full    *bench.Record
	Inc     *bench.Record
	Skipped bool
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := reportFile
	if path == "" {
		path = cfg.ResultsFile
	}
	records, err := bench.LoadRecords(path)
	if err != nil {
		return fmt.Errorf("failed to load result set: %w", err)
	}

	rows := buildRows(records)
	if reportMarkdown {
		return renderMarkdown(cmd, rows)
	}
	renderTable(cmd, rows)
	return nil
}

// buildRows groups records by (project, target) preserving first-seen order.
func buildRows(records []bench.Record) []*reportRow {
	index := make(map[string]*reportRow)
	var rows []*reportRow

	for i := range records {
		rec := &records[i]
		target := ""
		if rec.Target != nil {
			target = *rec.Target
		}
		key := rec.Project + "\x00" + target
		row, ok := index[key]
		if !ok {
			row = &reportRow{Project: rec.Project, Target: target}
			index[key] = row
			rows = append(rows, row)
		}
		switch rec.BuildType {
		case bench.BuildFull:
			row.Full = rec
		case bench.BuildIncremental:
			row.Inc = rec
		case bench.BuildSkip:
			row.Skipped = true
		}
	}
	return rows
}

func renderTable(cmd *cobra.Command, rows []*reportRow) {
	// Plain terminals get plain text.
	if termenv.ColorProfile() == termenv.Ascii {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, reportHeaderStyle.Render("PROJECT")+"\t"+
		reportHeaderStyle.Render("TARGET")+"\tFULL MS\tINC MS\tRATIO\tDIAG\tSTATUS")

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Project, row.Target,
			wallCell(row.Full), wallCell(row.Inc),
			ratioCell(row), diagCell(row.Full), statusCell(row))
	}
	w.Flush()
}

func renderMarkdown(cmd *cobra.Command, rows []*reportRow) error {
	var md strings.Builder
	md.WriteString("# Benchmark summary\n\n")
	md.WriteString("| Project | Target | Full ms | Inc ms | Ratio | Diagnostics |\n")
	md.WriteString("|---------|--------|---------|--------|-------|-------------|\n")
	for _, row := range rows {
		md.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			row.Project, row.Target,
			wallCell(row.Full), wallCell(row.Inc), ratioCell(row), diagCell(row.Full)))
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		// Fall back to raw markdown on dumb terminals.
		fmt.Fprintln(cmd.OutOrStdout(), md.String())
		return nil
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), md.String())
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func wallCell(rec *bench.Record) string {
	if rec == nil {
		return "-"
	}
	return fmt.Sprintf("%d", rec.WallMs)
}

func ratioCell(row *reportRow) string {
	if row.Full == nil || row.Inc == nil || row.Full.WallMs == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", float64(row.Inc.WallMs)/float64(row.Full.WallMs))
}

func diagCell(rec *bench.Record) string {
	if rec == nil || rec.Diagnostics == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *rec.Diagnostics)
}

func statusCell(row *reportRow) string {
	switch {
	case row.Skipped:
		return "SKIP"
	case row.Full != nil && row.Full.ExitCode != nil && *row.Full.ExitCode != 0:
		return reportErrorStyle.Render("ERROR")
	case row.Full != nil:
		return reportOKStyle.Render("OK")
	default:
		return "-"
	}
}
