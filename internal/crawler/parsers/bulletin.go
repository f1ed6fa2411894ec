// Package parsers turns bulletin text into notice records.
package parsers

import (
	"regexp"
	"strings"

	"imemirror/internal/models"
)

// separatorPattern matches a line made only of five or more dashes.
var separatorPattern = regexp.MustCompile(`(?m)^[ \t]*-{5,}[ \t]*$`)

// Field describes one labeled value inside a notice block.
type Field struct {
	Name string
	// Label is a regular expression fragment for the label preceding ":[".
	Label string
	// Primary fields decide whether a block is a real notice.
	Primary bool
	// StripQuotes captures everything up to "]" and then trims single quotes,
	// instead of matching the value between optional quotes.
	StripQuotes bool
}

// Field names.
const (
	FieldCaseFile    = "expediente"
	FieldTitle       = "caratula"
	FieldDescription = "descripcion"
	FieldVenue       = "radicado"
	FieldProceeding  = "tramite"
)

// DefaultFields are the fields published in IME bulletins.
var DefaultFields = []Field{
	{Name: FieldCaseFile, Label: `EXPEDIENTE`, Primary: true, StripQuotes: true},
	{Name: FieldTitle, Label: `CAR[AÁ]TULA`, Primary: true},
	{Name: FieldDescription, Label: `DESCRIPCI[OÓ]N`, Primary: true},
	{Name: FieldVenue, Label: `RADICADO\s+EN`},
	{Name: FieldProceeding, Label: `TR[AÁ]MITE\s+DE`},
}

type compiledField struct {
	Field
	pattern *regexp.Regexp
}

// BulletinParser extracts notices from bulletin text. It is stateless after
// construction and safe for concurrent use.
type BulletinParser struct {
	fields []compiledField
}

// NewBulletinParser creates a parser for DefaultFields.
func NewBulletinParser() *BulletinParser {
	return NewBulletinParserWithFields(DefaultFields)
}

// NewBulletinParserWithFields creates a parser for the given field set.
// It panics if a label is not a valid regular expression.
func NewBulletinParserWithFields(fields []Field) *BulletinParser {
	compiled := make([]compiledField, 0, len(fields))

	for _, f := range fields {
		compiled = append(compiled, compiledField{Field: f, pattern: fieldPattern(f)})
	}

	return &BulletinParser{fields: compiled}
}

func fieldPattern(f Field) *regexp.Regexp {
	value := `'?(.*?)'?\s*`
	if f.StripQuotes {
		value = `([^\]\n]+?)\s*`
	}

	return regexp.MustCompile(`(?i)\b` + f.Label + `\s*:\s*\[\s*` + value + `\]`)
}

// Parse splits text into blocks and returns one notice per block that has at
// least one primary field. Only the parsed fields are set.
func (p *BulletinParser) Parse(text string) []models.Notice {
	notices := make([]models.Notice, 0)

	for _, block := range SplitBlocks(text) {
		values := p.Extract(block)
		if !p.hasPrimary(values) {
			continue
		}

		notices = append(notices, models.Notice{
			CaseFile:    values[FieldCaseFile],
			Title:       values[FieldTitle],
			Description: values[FieldDescription],
			Venue:       values[FieldVenue],
			Proceeding:  values[FieldProceeding],
		})
	}

	return notices
}

// Extract returns every configured field's value in block, "" when absent.
func (p *BulletinParser) Extract(block string) map[string]string {
	values := make(map[string]string, len(p.fields))

	for _, f := range p.fields {
		values[f.Name] = f.extract(block)
	}

	return values
}

func (p *BulletinParser) hasPrimary(values map[string]string) bool {
	for _, f := range p.fields {
		if f.Primary && values[f.Name] != "" {
			return true
		}
	}

	return false
}

func (f compiledField) extract(block string) string {
	m := f.pattern.FindStringSubmatch(block)
	if len(m) < 2 {
		return ""
	}

	value := strings.TrimSpace(m[1])
	if f.StripQuotes {
		value = strings.TrimSpace(strings.Trim(value, "'"))
	}

	return value
}

// SplitBlocks normalizes line endings and splits text on separator lines.
// Text without separators is a single block.
func SplitBlocks(text string) []string {
	clean := strings.ReplaceAll(text, "\r\n", "\n")

	return separatorPattern.Split(clean, -1)
}
