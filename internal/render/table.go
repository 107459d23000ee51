// Package render formats search runs for terminals and spreadsheet export.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/levelworks/rlistic/internal/model"
)

var headers = []string{"RANK", "GROUPS", "GRADE"}

// Table writes a fixed-width table of the run's ranked results followed by
// a one-line summary.
func Table(w io.Writer, run *model.SearchRun) error {
	rows := make([][]string, 0, len(run.Results))
	for _, r := range run.Results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Rank),
			FormatGroups(r.Groups),
			r.Grade,
		})
	}

	widths := columnWidths(headers, rows)
	if err := writeRow(w, headers, widths); err != nil {
		return err
	}
	if err := writeRule(w, widths); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRow(w, row, widths); err != nil {
			return err
		}
	}

	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, "\n%d result(s) for %s (policy %s)\n",
		len(run.Results), run.Scenario, run.Policy)
	return eris.Wrap(err, "render: write summary")
}

// FormatGroups renders a partition as {a b} {c} for display.
func FormatGroups(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = "{" + strings.Join(g, " ") + "}"
	}
	return strings.Join(parts, " ")
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func writeRow(w io.Writer, cells []string, widths []int) error {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	return eris.Wrap(err, "render: write row")
}

func writeRule(w io.Writer, widths []int) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, "  "))
	return eris.Wrap(err, "render: write rule")
}
