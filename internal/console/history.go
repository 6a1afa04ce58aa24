package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cjeanneret/RoboGo/internal/journal"
)

// History renders journaled runs as a table, newest first as given.
func History(runs []journal.Run) string {
	if len(runs) == 0 {
		return "no runs recorded"
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		path := "-"
		if r.PathID > 0 {
			path = fmt.Sprint(r.PathID)
		}
		duration := "-"
		if d := r.Duration(); d > 0 {
			duration = d.Round(100 * time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Kind,
			path,
			fmt.Sprint(r.Speed),
			fmt.Sprint(r.Steps),
			fmt.Sprint(r.Obstacles),
			r.Outcome,
			duration,
		})
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("started", "kind", "path", "speed", "steps", "obstacles", "outcome", "duration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.Render()
}

// crlfWriter translates "\n" to "\r\n" for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

// CRLF wraps w so log lines stay aligned while the terminal is raw.
func CRLF(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\r\n", "\n")
	if _, err := io.WriteString(c.w, strings.ReplaceAll(s, "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}
