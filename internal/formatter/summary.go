package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"imemirror/internal/mirror"
)

// Unit status labels.
const (
	StatusMirrored    = "mirrored"
	StatusUnavailable = "unavailable"
)

// SummaryLines renders one table row per unit followed by a totals line.
func SummaryLines(report *mirror.Report) []string {
	rows := make([][]string, 0, len(report.Units))

	for _, u := range report.Units {
		status := StatusUnavailable
		records := "-"

		if u.Found {
			status = StatusMirrored
			records = strconv.Itoa(u.Records)
		}

		label := u.Unit.CourtLabel
		if label == "" {
			label = "Juzgado Civil " + u.Unit.CourtNumber
		}

		rows = append(rows, []string{label, u.Unit.Shift, status, records, strconv.Itoa(u.Attempts)})
	}

	lines := RenderTable([]string{"Court", "Shift", "Status", "Records", "Attempts"}, rows)
	lines = append(lines, "", fmt.Sprintf("%s: %d records from %d/%d bulletins in %s",
		report.Date.ISO(), report.Total, report.Found(), len(report.Units), report.Aggregate))

	return lines
}

// WriteSummary writes the run summary to w.
func WriteSummary(w io.Writer, report *mirror.Report) error {
	_, err := io.WriteString(w, strings.Join(SummaryLines(report), "\n")+"\n")

	return err
}
