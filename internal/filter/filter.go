// Package filter evaluates per-column constraints and the global symbol filter.
//
// Two failure rules are deliberately asymmetric:
//   - a record missing the constrained field (or holding a non-numeric value
//     under a numeric constraint) fails the predicate;
//   - a numeric filter string that matches no encoding is no constraint at all,
//     so a typo never hides every row.
package filter

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"strategy_dash/internal/domain"
)

// Predicate decides whether a record is shown.
type Predicate func(domain.InstrumentRecord) bool

// MatchAll accepts every record.
func MatchAll(domain.InstrumentRecord) bool { return true }

// IsUnconstrained reports whether a filter value means "no constraint".
func IsUnconstrained(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, domain.FilterAll)
}

// MatchText is the global filter: case-insensitive substring on the symbol only.
func MatchText(rec domain.InstrumentRecord, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Symbol), strings.ToLower(text))
}

// MatchCategorical compares a text or flag field case-insensitively.
// Flags are compared as "yes"/"no"; "true"/"false" are accepted as aliases.
func MatchCategorical(rec domain.InstrumentRecord, field, value string) bool {
	if IsUnconstrained(value) {
		return true
	}
	got, ok := rec.Text(field)
	if !ok {
		return false
	}
	want := strings.TrimSpace(value)
	if domain.KindOf(field) == domain.KindFlag {
		want = flagAlias(want)
	}
	return strings.EqualFold(got, want)
}

func flagAlias(v string) string {
	switch strings.ToLower(v) {
	case "true", "1", "y":
		return "yes"
	case "false", "0", "n":
		return "no"
	}
	return v
}

// Op is a numeric comparison.
type Op int

const (
	OpNone Op = iota
	OpEq
	OpGt
	OpLt
	OpGte
	OpLte
	OpRange
)

// NumericConstraint is a parsed numeric filter value.
type NumericConstraint struct {
	Op       Op
	Operand  float64
	Min, Max float64
}

const number = `[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`

var (
	numberRe = regexp.MustCompile(`^` + number + `$`)
	rangeRe  = regexp.MustCompile(`^(` + number + `)\s*-\s*(` + number + `)$`)
)

// parseOperand accepts plain decimal notation only (no inf, NaN or hex floats).
func parseOperand(s string) (float64, bool) {
	if !numberRe.MatchString(s) {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	return x, err == nil
}

// ParseNumeric parses one of ">x", "<x", ">=x", "<=x", "min-max", or an exact number.
// ok is false for "all"/empty and for strings matching no encoding.
func ParseNumeric(value string) (NumericConstraint, bool) {
	v := strings.TrimSpace(value)
	if IsUnconstrained(v) {
		return NumericConstraint{}, false
	}

	for _, p := range []struct {
		prefix string
		op     Op
	}{{">=", OpGte}, {"<=", OpLte}, {">", OpGt}, {"<", OpLt}} {
		if rest, found := strings.CutPrefix(v, p.prefix); found {
			x, ok := parseOperand(strings.TrimSpace(rest))
			if !ok {
				return NumericConstraint{}, false
			}
			return NumericConstraint{Op: p.op, Operand: x}, true
		}
	}

	if x, ok := parseOperand(v); ok {
		return NumericConstraint{Op: OpEq, Operand: x}, true
	}

	if m := rangeRe.FindStringSubmatch(v); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return NumericConstraint{Op: OpRange, Min: lo, Max: hi}, true
		}
	}
	return NumericConstraint{}, false
}

// Match applies the constraint to a value.
func (c NumericConstraint) Match(x float64) bool {
	switch c.Op {
	case OpEq:
		return x == c.Operand
	case OpGt:
		return x > c.Operand
	case OpLt:
		return x < c.Operand
	case OpGte:
		return x >= c.Operand
	case OpLte:
		return x <= c.Operand
	case OpRange:
		return x >= c.Min && x <= c.Max
	}
	return true
}

// MatchNumeric applies a numeric filter value to a record field.
func MatchNumeric(rec domain.InstrumentRecord, field, value string) bool {
	c, ok := ParseNumeric(value)
	if !ok {
		return true
	}
	x, present := rec.Number(field)
	if !present {
		return false
	}
	return c.Match(x)
}

// Compile turns a FilterSpec into one predicate. The global text filter runs
// first; column predicates are ANDed in field-name order. Unparseable numeric
// values and unknown fields contribute no constraint.
func Compile(spec domain.FilterSpec) Predicate {
	text := strings.TrimSpace(spec.Text)

	fields := make([]string, 0, len(spec.Columns))
	for field := range spec.Columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var columns []Predicate
	for _, field := range fields {
		value := spec.Columns[field]
		if IsUnconstrained(value) {
			continue
		}
		switch domain.KindOf(field) {
		case domain.KindNumeric:
			c, ok := ParseNumeric(value)
			if !ok {
				slog.Debug("Ignoring unparseable numeric filter", slog.String("field", field), slog.String("value", value))
				continue
			}
			f := field
			columns = append(columns, func(r domain.InstrumentRecord) bool {
				x, present := r.Number(f)
				return present && c.Match(x)
			})
		case domain.KindText, domain.KindFlag:
			f, v := field, value
			columns = append(columns, func(r domain.InstrumentRecord) bool {
				return MatchCategorical(r, f, v)
			})
		default:
			slog.Warn("Ignoring filter on unknown field", slog.String("field", field))
		}
	}

	if text == "" && len(columns) == 0 {
		return MatchAll
	}

	return func(r domain.InstrumentRecord) bool {
		if !MatchText(r, text) {
			return false
		}
		for _, p := range columns {
			if !p(r) {
				return false
			}
		}
		return true
	}
}
