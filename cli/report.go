package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/grovetools/moonsync/syncer"
	"github.com/grovetools/moonsync/tui/theme"
)

// PrintReportJSON writes the sync report as indented JSON.
func PrintReportJSON(w io.Writer, report *syncer.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// RenderCandidates renders the candidates of a report as a table.
func RenderCandidates(candidates []syncer.Candidate) string {
	t := theme.DefaultTheme
	headerStyle := t.TableHeader.Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		icon := c.Icon
		if icon == "" {
			icon = "-"
		}
		rows = append(rows, []string{c.Title, c.LaunchOptions, icon})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("TITLE", "LAUNCH OPTIONS", "ICON").
		Rows(rows...).
		String()
}

// PrintDryRun prints what a sync would do without writing anything.
func PrintDryRun(w io.Writer, report *syncer.Report) {
	t := theme.DefaultTheme
	fmt.Fprintln(w, t.Header.Render("Dry run: "+report.StorePath))
	fmt.Fprintf(w, "%s kept, %s removed, %s added\n",
		t.Bold.Render(fmt.Sprint(report.Kept)),
		t.Bold.Render(fmt.Sprint(report.Removed)),
		t.Bold.Render(fmt.Sprint(len(report.Added))))
	if len(report.Added) > 0 {
		fmt.Fprintln(w, RenderCandidates(report.Added))
	}
	fmt.Fprintln(w, t.Muted.Render("Nothing was written."))
}
