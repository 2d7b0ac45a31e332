// Package report turns timeline summaries into display rows.
package report

import (
	"fmt"
	"strings"

	"github.com/dgallion1/doctimeline/internal/timeline"
)

// ColumnWidth is the fixed width of every text column.
const ColumnWidth = 16

const dateLayout = "2006-01-02"

// Header names the columns of Row.
func Header() []string {
	return []string{
		"",
		"Requested time",
		"Done",
		"Spent work hrs",
		"Hours left I",
		"Hours left II",
		"Spent days",
		"Work factor",
		"Advance / week",
		"ETA",
		"ETA corrected",
	}
}

// Row formats a summary as display strings in Header order.
func Row(s timeline.Summary) []string {
	eta, corrected := "n/a", "n/a"
	if d, ok := s.ETADate(); ok {
		eta = d.Format(dateLayout)
	}
	if d, ok := s.ETACorrectedDate(); ok {
		corrected = d.Format(dateLayout)
	}
	return []string{
		s.Label,
		fmt.Sprintf("%0.2f h", s.RequestedHours()),
		fmt.Sprintf("%0.0f %%", s.Completion*100),
		fmt.Sprintf("%0.2f h", s.HoursWorked()),
		fmt.Sprintf("%0.2f h", s.HoursLeft()),
		fmt.Sprintf("%0.2f h", s.HoursLeftAdjusted()),
		fmt.Sprintf("%0.2f d", s.ElapsedDays),
		fmt.Sprintf("%0.2f", s.WorkFactor),
		fmt.Sprintf("%0.0f %%", s.AdvancementPerWeek*100),
		eta,
		corrected,
	}
}

// Rows formats every summary.
func Rows(summaries []timeline.Summary) [][]string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = Row(s)
	}
	return rows
}

// ChunkTable returns one row per submodule of c, each covering only that
// submodule's own counters.
func ChunkTable(c *timeline.Chunk, f *timeline.Forest) ([][]string, error) {
	rows := make([][]string, 0, c.NumSubmodules())
	for i := 0; i < c.NumSubmodules(); i++ {
		n, err := c.Submodule(i, f)
		if err != nil {
			return nil, fmt.Errorf("chunk table %s: %w", c.Name, err)
		}
		rows = append(rows, Row(timeline.Finalize(n.Label(), n.OwnRollup(), f.Now)))
	}
	return rows, nil
}

// FormatRow pads every cell to ColumnWidth. Longer cells are kept whole.
func FormatRow(row []string) string {
	var sb strings.Builder
	for i, cell := range row {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("%-*s", ColumnWidth, cell))
	}
	return strings.TrimRight(sb.String(), " ")
}

// Text renders the header and rows as a fixed-width table.
func Text(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString(FormatRow(Header()))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(FormatRow(r))
		sb.WriteString("\n")
	}
	return sb.String()
}
