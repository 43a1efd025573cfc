package domain

import "strings"

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case; anything else is descending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Ascending)) {
		return Ascending
	}
	return Descending
}

// SortSpec is the (field, direction) a view is ordered by.
type SortSpec struct {
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultSort orders by percent change, biggest movers first.
var DefaultSort = SortSpec{Field: FieldChange, Direction: Descending}

// Toggle returns the spec produced by clicking a column header:
// the same field flips asc -> desc, any other click starts ascending.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field && s.Direction == Ascending {
		return SortSpec{Field: field, Direction: Descending}
	}
	return SortSpec{Field: field, Direction: Ascending}
}

// FilterAll is the filter value meaning "no constraint".
const FilterAll = "all"

// FilterSpec holds the global symbol filter and per-column constraints.
// It is independent from SortSpec.
type FilterSpec struct {
	Text    string            `json:"text"`
	Columns map[string]string `json:"columns,omitempty"`
}

// With returns a copy with one column constraint set. "all" or empty removes it.
func (f FilterSpec) With(field, value string) FilterSpec {
	out := f.Clone()
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, FilterAll) {
		delete(out.Columns, field)
	} else {
		out.Columns[field] = value
	}
	return out
}

// WithText returns a copy with the global symbol filter replaced.
func (f FilterSpec) WithText(text string) FilterSpec {
	out := f.Clone()
	out.Text = text
	return out
}

// Clone returns a copy that shares no map with f.
func (f FilterSpec) Clone() FilterSpec {
	out := FilterSpec{Text: f.Text, Columns: make(map[string]string, len(f.Columns)+1)}
	for k, v := range f.Columns {
		out.Columns[k] = v
	}
	return out
}

// IsEmpty reports whether the spec constrains nothing.
func (f FilterSpec) IsEmpty() bool {
	return strings.TrimSpace(f.Text) == "" && len(f.Columns) == 0
}
