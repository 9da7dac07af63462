package achievement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultTrueValue is the cell value that marks a boolean column as true.
const DefaultTrueValue = "TRUE"

// Columns names the CSV headers each record field is read from.
type Columns struct {
	ID                string `yaml:"id,omitempty"`
	Title             string `yaml:"title,omitempty"`
	Points            string `yaml:"points,omitempty"`
	Description       string `yaml:"description,omitempty"`
	EarnedDescription string `yaml:"earned_description,omitempty"`
	Image             string `yaml:"image,omitempty"`
	Repeatable        string `yaml:"repeatable,omitempty"`
	Hidden            string `yaml:"hidden,omitempty"`
}

// DefaultColumns returns the header names used by the achievements sheet
// template.
func DefaultColumns() Columns {
	return Columns{
		ID:                "ID",
		Title:             "Title",
		Points:            "Points",
		Description:       "Description",
		EarnedDescription: "Earned description",
		Image:             "Image name (.png)",
		Repeatable:        "Achievable multiple times",
		Hidden:            "Hidden",
	}
}

// WithDefaults fills empty header names from DefaultColumns.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&c.ID, d.ID)
	fill(&c.Title, d.Title)
	fill(&c.Points, d.Points)
	fill(&c.Description, d.Description)
	fill(&c.EarnedDescription, d.EarnedDescription)
	fill(&c.Image, d.Image)
	fill(&c.Repeatable, d.Repeatable)
	fill(&c.Hidden, d.Hidden)
	return c
}

func (c Columns) required() []string {
	return []string{c.ID, c.Title, c.Points, c.Description, c.EarnedDescription, c.Image, c.Repeatable, c.Hidden}
}

// LoadOptions controls how the CSV is interpreted.
type LoadOptions struct {
	// Columns are the header names; empty fields fall back to defaults.
	Columns Columns
	// TrueValue is the exact cell value for true booleans (default "TRUE").
	TrueValue string
	// LastRowIsFooter drops the final data row (e.g. a totals row).
	LastRowIsFooter bool
}

// ParseError reports a malformed CSV. Line is 1-based and counts the header.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingColumn is wrapped by ParseError when a required header is absent.
var ErrMissingColumn = errors.New("required column not found in header")

// Load reads achievement records from the CSV file at path.
func Load(path string, opts LoadOptions) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, path, opts)
}

// Read parses records from r. name is only used in error messages.
func Read(r io.Reader, name string, opts LoadOptions) ([]Record, error) {
	cols := opts.Columns.WithDefaults()
	trueValue := opts.TrueValue
	if trueValue == "" {
		trueValue = DefaultTrueValue
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Path: name, Line: 1, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, c := range cols.required() {
		if _, ok := index[c]; !ok {
			return nil, &ParseError{Path: name, Line: 1, Column: c, Err: ErrMissingColumn}
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	if opts.LastRowIsFooter && len(rows) > 0 {
		rows = rows[:len(rows)-1]
	}

	suffix := ImageSuffix(cols.Image)
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		cell := func(column string) string {
			if j := index[column]; j < len(row) {
				return row[j]
			}
			return ""
		}

		raw := strings.TrimSpace(cell(cols.Points))
		points, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ParseError{Path: name, Line: line, Column: cols.Points, Err: fmt.Errorf("invalid number %q", raw)}
		}
		if points < 0 {
			return nil, &ParseError{Path: name, Line: line, Column: cols.Points, Err: fmt.Errorf("negative points %d", points)}
		}

		records = append(records, Record{
			ID:                cell(cols.ID),
			Title:             cell(cols.Title),
			Points:            points,
			Description:       cell(cols.Description),
			EarnedDescription: cell(cols.EarnedDescription),
			ImageName:         WithImageSuffix(cell(cols.Image), suffix),
			Repeatable:        cell(cols.Repeatable) == trueValue,
			Hidden:            cell(cols.Hidden) == trueValue,
		})
	}

	return records, nil
}
