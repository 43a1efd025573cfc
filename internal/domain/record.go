package domain

import (
	"math"
	"strings"
)

// FieldKind classifies how a record field is filtered and sorted.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindNumeric
	KindText
	KindFlag
)

// Field names as they appear on the wire.
const (
	FieldSymbol      = "symbol"
	FieldLTP         = "ltp"
	FieldChange      = "change"
	FieldVolume      = "volume"
	FieldHigh        = "high"
	FieldLow         = "low"
	FieldOpen        = "open"
	FieldGap         = "gap"
	FieldRelVolume   = "rvol"
	FieldPDH         = "pdh"
	FieldNewsWeight  = "newsWeight"
	FieldLastUpdate  = "last_update"
	FieldPremarket   = "premarket"
	FieldSPDC        = "spdc"
	FieldSOpen       = "sopen"
	FieldCrossedPDH  = "crossed_pdh"
	FieldDescription = "description"
	FieldPDHAlert    = "pdh_alert"
)

var fieldKinds = map[string]FieldKind{
	FieldSymbol:      KindText,
	FieldLTP:         KindNumeric,
	FieldChange:      KindNumeric,
	FieldVolume:      KindNumeric,
	FieldHigh:        KindNumeric,
	FieldLow:         KindNumeric,
	FieldOpen:        KindNumeric,
	FieldGap:         KindNumeric,
	FieldRelVolume:   KindNumeric,
	FieldPDH:         KindNumeric,
	FieldNewsWeight:  KindNumeric,
	FieldLastUpdate:  KindNumeric,
	FieldPremarket:   KindText,
	FieldSPDC:        KindText,
	FieldSOpen:       KindText,
	FieldCrossedPDH:  KindText,
	FieldDescription: KindText,
	FieldPDHAlert:    KindFlag,
}

// KindOf returns the kind of a named field, KindUnknown if the field is not tracked.
func KindOf(field string) FieldKind {
	return fieldKinds[field]
}

// InstrumentRecord is one row of a strategy group.
// Every field except Symbol is optional: nil means "not mentioned".
// Records are treated as immutable values once stored; Merge returns a new one.
type InstrumentRecord struct {
	Symbol string `json:"symbol"`

	// Live fields
	LTP        *float64 `json:"ltp,omitempty"`
	Change     *float64 `json:"change,omitempty"`
	Volume     *float64 `json:"volume,omitempty"`
	High       *float64 `json:"high,omitempty"`
	Low        *float64 `json:"low,omitempty"`
	Open       *float64 `json:"open,omitempty"`
	LastUpdate *float64 `json:"last_update,omitempty"`

	// Static / screener fields
	Gap         *float64 `json:"gap,omitempty"`
	RelVolume   *float64 `json:"rvol,omitempty"`
	PDH         *float64 `json:"pdh,omitempty"`
	NewsWeight  *float64 `json:"newsWeight,omitempty"`
	Premarket   *string  `json:"premarket,omitempty"`
	SPDC        *string  `json:"spdc,omitempty"`
	SOpen       *string  `json:"sopen,omitempty"`
	CrossedPDH  *string  `json:"crossed_pdh,omitempty"`
	Description *string  `json:"description,omitempty"`
	PDHAlert    *bool    `json:"pdh_alert,omitempty"`
}

func (r *InstrumentRecord) numericRef(field string) **float64 {
	switch field {
	case FieldLTP:
		return &r.LTP
	case FieldChange:
		return &r.Change
	case FieldVolume:
		return &r.Volume
	case FieldHigh:
		return &r.High
	case FieldLow:
		return &r.Low
	case FieldOpen:
		return &r.Open
	case FieldLastUpdate:
		return &r.LastUpdate
	case FieldGap:
		return &r.Gap
	case FieldRelVolume:
		return &r.RelVolume
	case FieldPDH:
		return &r.PDH
	case FieldNewsWeight:
		return &r.NewsWeight
	}
	return nil
}

func (r *InstrumentRecord) textRef(field string) **string {
	switch field {
	case FieldPremarket:
		return &r.Premarket
	case FieldSPDC:
		return &r.SPDC
	case FieldSOpen:
		return &r.SOpen
	case FieldCrossedPDH:
		return &r.CrossedPDH
	case FieldDescription:
		return &r.Description
	}
	return nil
}

// Number returns a numeric field. ok is false when the field is absent,
// not numeric, or NaN.
func (r InstrumentRecord) Number(field string) (float64, bool) {
	ref := r.numericRef(field)
	if ref == nil || *ref == nil || math.IsNaN(**ref) {
		return 0, false
	}
	return **ref, true
}

// Text returns a text-like field. Flags render as "yes"/"no".
func (r InstrumentRecord) Text(field string) (string, bool) {
	switch field {
	case FieldSymbol:
		return r.Symbol, r.Symbol != ""
	case FieldPDHAlert:
		if r.PDHAlert == nil {
			return "", false
		}
		if *r.PDHAlert {
			return "yes", true
		}
		return "no", true
	}
	ref := r.textRef(field)
	if ref == nil || *ref == nil {
		return "", false
	}
	return **ref, true
}

// SetNumber sets a numeric field; unknown fields are ignored and reported.
func (r *InstrumentRecord) SetNumber(field string, v float64) bool {
	ref := r.numericRef(field)
	if ref == nil {
		return false
	}
	*ref = &v
	return true
}

// SetText sets a text field; unknown fields are ignored and reported.
func (r *InstrumentRecord) SetText(field, v string) bool {
	if field == FieldSymbol {
		r.Symbol = v
		return true
	}
	ref := r.textRef(field)
	if ref == nil {
		return false
	}
	*ref = &v
	return true
}

// SetFlag sets a boolean field.
func (r *InstrumentRecord) SetFlag(field string, v bool) bool {
	if field != FieldPDHAlert {
		return false
	}
	r.PDHAlert = &v
	return true
}

// Merge returns a copy of r with every field present in patch overwritten.
// Fields absent from patch keep their previous values.
func (r InstrumentRecord) Merge(patch InstrumentRecord) InstrumentRecord {
	out := r
	if patch.Symbol != "" {
		out.Symbol = patch.Symbol
	}
	for field, kind := range fieldKinds {
		switch kind {
		case KindNumeric:
			if src := patch.numericRef(field); *src != nil {
				*out.numericRef(field) = *src
			}
		case KindText:
			if src := patch.textRef(field); src != nil && *src != nil {
				*out.textRef(field) = *src
			}
		}
	}
	if patch.PDHAlert != nil {
		out.PDHAlert = patch.PDHAlert
	}
	return out
}

// Equal reports field-wise value equality.
func (r InstrumentRecord) Equal(o InstrumentRecord) bool {
	if r.Symbol != o.Symbol {
		return false
	}
	for field, kind := range fieldKinds {
		switch kind {
		case KindNumeric:
			a, b := *r.numericRef(field), *o.numericRef(field)
			if (a == nil) != (b == nil) || (a != nil && *a != *b) {
				return false
			}
		case KindText:
			if field == FieldSymbol {
				continue
			}
			a, b := *r.textRef(field), *o.textRef(field)
			if (a == nil) != (b == nil) || (a != nil && *a != *b) {
				return false
			}
		}
	}
	if (r.PDHAlert == nil) != (o.PDHAlert == nil) {
		return false
	}
	return r.PDHAlert == nil || *r.PDHAlert == *o.PDHAlert
}

// Clone returns a copy of r that shares no field pointers with it.
func (r InstrumentRecord) Clone() InstrumentRecord {
	out := r
	for field, kind := range fieldKinds {
		switch kind {
		case KindNumeric:
			if p := out.numericRef(field); *p != nil {
				v := **p
				*p = &v
			}
		case KindText:
			if p := out.textRef(field); p != nil && *p != nil {
				v := **p
				*p = &v
			}
		}
	}
	if out.PDHAlert != nil {
		v := *out.PDHAlert
		out.PDHAlert = &v
	}
	return out
}

// DisplaySymbol strips the exchange prefix and series suffix ("NSE:RELIANCE-EQ" -> "RELIANCE").
func DisplaySymbol(symbol string) string {
	s := strings.TrimPrefix(symbol, "NSE:")
	return strings.TrimSuffix(s, "-EQ")
}

// StrategyGroup maps symbol to record. Membership is additive.
type StrategyGroup map[string]InstrumentRecord

// DataSet maps strategy name to its group.
type DataSet map[string]StrategyGroup

// Clone returns a deep copy. Nothing in the result aliases d.
func (d DataSet) Clone() DataSet {
	out := make(DataSet, len(d))
	for name, group := range d {
		g := make(StrategyGroup, len(group))
		for sym, rec := range group {
			g[sym] = rec.Clone()
		}
		out[name] = g
	}
	return out
}

// Equal reports whether two data sets hold the same strategies, symbols and values.
func (d DataSet) Equal(o DataSet) bool {
	if len(d) != len(o) {
		return false
	}
	for name, group := range d {
		other, ok := o[name]
		if !ok || len(group) != len(other) {
			return false
		}
		for sym, rec := range group {
			orec, ok := other[sym]
			if !ok || !rec.Equal(orec) {
				return false
			}
		}
	}
	return true
}

// Float and Str are helpers for building records in code and tests.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
