// Package models defines data structures shared by the crawler and the mirror runner.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shift names as they appear in published bulletin file names.
const (
	ShiftMorning   = "Matutino"
	ShiftAfternoon = "Vespertino"
)

// Shifts returns the publication shifts in iteration order.
func Shifts() []string {
	return []string{ShiftMorning, ShiftAfternoon}
}

// Court identifies one civil court whose bulletins are mirrored.
type Court struct {
	Number string `yaml:"number" json:"n"`
	Path   string `yaml:"path"   json:"path"`
	Label  string `yaml:"label"  json:"etiqueta"`
}

// UnmarshalJSON accepts the court number either as a JSON number or a string.
func (c *Court) UnmarshalJSON(data []byte) error {
	var raw struct {
		Number json.RawMessage `json:"n"`
		Path   string          `json:"path"`
		Label  string          `json:"etiqueta"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	number := strings.TrimSpace(string(raw.Number))
	if strings.HasPrefix(number, `"`) {
		if err := json.Unmarshal(raw.Number, &number); err != nil {
			return fmt.Errorf("invalid court number: %w", err)
		}
	}

	if number == "null" {
		number = ""
	}

	c.Number = strings.TrimSpace(number)
	c.Path = raw.Path
	c.Label = raw.Label

	return nil
}

// WorkUnit is one (court, shift, date) combination to fetch and parse.
type WorkUnit struct {
	CourtNumber string
	CourtLabel  string
	Path        string
	Shift       string
	Year        string
	Month       string
	Day         string
	URL         string
}

// FileStem returns the bulletin base name shared by the source file and local outputs.
func (u WorkUnit) FileStem() string {
	return fmt.Sprintf("Juzgado_Civil_%s_%s_%s_%s_%s", u.CourtNumber, u.Year, u.Month, u.Day, u.Shift)
}

// ISODate returns the unit date as YYYY-MM-DD.
func (u WorkUnit) ISODate() string {
	return u.Year + "-" + u.Month + "-" + u.Day
}

// String returns a short human-readable identifier.
func (u WorkUnit) String() string {
	return fmt.Sprintf("%s/%s %s", u.CourtNumber, u.Shift, u.ISODate())
}
