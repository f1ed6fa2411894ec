// Package mirror runs one mirroring pass: it enumerates the day's work units,
// fetches and parses each bulletin, and persists raw text and records.
package mirror

import (
	"fmt"
	"strings"
	"time"

	"imemirror/internal/models"
)

// Date is a calendar day as zero-padded strings.
type Date struct {
	Year  string
	Month string
	Day   string
}

// Today returns the calendar date of now in loc.
func Today(loc *time.Location, now time.Time) Date {
	return DateOf(now.In(loc))
}

// DateOf returns t's calendar date in t's own location.
func DateOf(t time.Time) Date {
	return Date{
		Year:  fmt.Sprintf("%04d", t.Year()),
		Month: fmt.Sprintf("%02d", int(t.Month())),
		Day:   fmt.Sprintf("%02d", t.Day()),
	}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return DateOf(t), nil
}

// ISO returns the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Year + "-" + d.Month + "-" + d.Day
}

// BuildWorkSet returns one unit per (court, shift), court-major.
func BuildWorkSet(courts []models.Court, shifts []string, date Date, baseURL string) []models.WorkUnit {
	base := strings.TrimRight(baseURL, "/")
	units := make([]models.WorkUnit, 0, len(courts)*len(shifts))

	for _, court := range courts {
		for _, shift := range shifts {
			u := models.WorkUnit{
				CourtNumber: court.Number,
				CourtLabel:  court.Label,
				Path:        strings.Trim(court.Path, "/"),
				Shift:       shift,
				Year:        date.Year,
				Month:       date.Month,
				Day:         date.Day,
			}
			u.URL = base + "/" + u.Path + "/" + u.FileStem() + ".txt"

			units = append(units, u)
		}
	}

	return units
}
