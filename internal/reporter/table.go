package reporter

import (
	"strings"
	"unicode/utf8"
)

// NoFindingsMessage replaces the table when there is nothing to show.
const NoFindingsMessage = "No vulnerabilities found."

// Headers are the table columns in display order.
var Headers = []string{"file_name", "bug_type", "bug_name", "bug_priority", "file_lines"}

func (r Row) cells() []string {
	return []string{r.FileName, r.BugType, r.BugName, r.BugPriority, r.FileLines}
}

// RenderTable formats rows as a fixed-width text table. Each column is as
// wide as its widest cell or header.
func RenderTable(rows []Row) string {
	if len(rows) == 0 {
		return NoFindingsMessage
	}

	widths := make([]int, len(Headers))
	for i, h := range Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, c := range row.cells() {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, formatRow(Headers, widths))

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	lines = append(lines, strings.Join(seps, "-+-"))

	for _, row := range rows {
		lines = append(lines, formatRow(row.cells(), widths))
	}
	return strings.Join(lines, "\n")
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
	}
	return strings.Join(padded, " | ")
}

// RenderRecords flattens and renders in one step.
func RenderRecords(records []Record) string {
	return RenderTable(Flatten(records))
}
