package domain

import (
	"math"
	"testing"
)

func TestInstrumentRecord_Merge(t *testing.T) {
	old := InstrumentRecord{
		Symbol:      "NSE:TCS-EQ",
		LTP:         Float(3500),
		Change:      Float(1.2),
		Gap:         Float(0.8),
		Premarket:   Str("yes"),
		Description: Str("Q2 results"),
	}

	t.Run("patch overwrites only present fields", func(t *testing.T) {
		got := old.Merge(InstrumentRecord{Change: Float(-0.4), PDHAlert: Bool(true)})

		if *got.Change != -0.4 {
			t.Errorf("Expected change -0.4, got %v", *got.Change)
		}
		if *got.LTP != 3500 || *got.Gap != 0.8 {
			t.Error("Unmentioned numeric fields must be preserved")
		}
		if *got.Premarket != "yes" || *got.Description != "Q2 results" {
			t.Error("Unmentioned text fields must be preserved")
		}
		if got.PDHAlert == nil || !*got.PDHAlert {
			t.Error("Flag from patch should be applied")
		}
		if got.Symbol != "NSE:TCS-EQ" {
			t.Errorf("Symbol should survive an empty patch symbol, got %q", got.Symbol)
		}
	})

	t.Run("merge does not touch the receiver", func(t *testing.T) {
		_ = old.Merge(InstrumentRecord{LTP: Float(1)})
		if *old.LTP != 3500 {
			t.Errorf("Receiver mutated: ltp = %v", *old.LTP)
		}
	})

	t.Run("merge is idempotent", func(t *testing.T) {
		patch := InstrumentRecord{LTP: Float(3510), SPDC: Str("no")}
		once := old.Merge(patch)
		twice := once.Merge(patch)
		if !once.Equal(twice) {
			t.Error("Applying the same patch twice should equal applying it once")
		}
	})
}

func TestInstrumentRecord_Accessors(t *testing.T) {
	r := InstrumentRecord{
		Symbol:    "NSE:INFY-EQ",
		Change:    Float(2.5),
		RelVolume: Float(math.NaN()),
		SPDC:      Str("Yes"),
		PDHAlert:  Bool(false),
	}

	if v, ok := r.Number(FieldChange); !ok || v != 2.5 {
		t.Errorf("Number(change) = %v, %v", v, ok)
	}
	if _, ok := r.Number(FieldGap); ok {
		t.Error("Absent field should not be ok")
	}
	if _, ok := r.Number(FieldRelVolume); ok {
		t.Error("NaN should be treated as absent")
	}
	if _, ok := r.Number("bogus"); ok {
		t.Error("Unknown field should not be ok")
	}
	if v, ok := r.Text(FieldSPDC); !ok || v != "Yes" {
		t.Errorf("Text(spdc) = %q, %v", v, ok)
	}
	if v, ok := r.Text(FieldPDHAlert); !ok || v != "no" {
		t.Errorf("Text(pdh_alert) = %q, %v", v, ok)
	}
	if v, ok := r.Text(FieldSymbol); !ok || v != "NSE:INFY-EQ" {
		t.Errorf("Text(symbol) = %q, %v", v, ok)
	}
	if got := DisplaySymbol(r.Symbol); got != "INFY" {
		t.Errorf("DisplaySymbol() = %q", got)
	}
}

func TestInstrumentRecord_Clone(t *testing.T) {
	r := InstrumentRecord{Symbol: "A", Change: Float(1), SPDC: Str("yes"), PDHAlert: Bool(true)}
	c := r.Clone()
	if !c.Equal(r) {
		t.Fatalf("clone differs: %+v", c)
	}

	*c.Change = 99
	*c.SPDC = "no"
	*c.PDHAlert = false
	if *r.Change != 1 || *r.SPDC != "yes" || !*r.PDHAlert {
		t.Errorf("editing the clone changed the original: %+v", r)
	}
}

func TestDataSet_CloneIsDeep(t *testing.T) {
	ds := DataSet{"M": {"X": {Symbol: "X", Change: Float(2)}}}
	c := ds.Clone()
	*c["M"]["X"].Change = 99
	if *ds["M"]["X"].Change != 2 {
		t.Errorf("original change = %v, want 2", *ds["M"]["X"].Change)
	}
}

func TestInstrumentRecord_Setters(t *testing.T) {
	var r InstrumentRecord
	if !r.SetNumber(FieldGap, 1.5) || *r.Gap != 1.5 {
		t.Error("SetNumber(gap) failed")
	}
	if r.SetNumber(FieldPremarket, 1) {
		t.Error("SetNumber on a text field should be rejected")
	}
	if !r.SetText(FieldCrossedPDH, "yes") || *r.CrossedPDH != "yes" {
		t.Error("SetText(crossed_pdh) failed")
	}
	if r.SetText(FieldLTP, "1") {
		t.Error("SetText on a numeric field should be rejected")
	}
	if !r.SetFlag(FieldPDHAlert, true) || !*r.PDHAlert {
		t.Error("SetFlag(pdh_alert) failed")
	}
	if r.SetFlag(FieldSPDC, true) {
		t.Error("SetFlag on a text field should be rejected")
	}
}

func TestDataSet_CloneAndEqual(t *testing.T) {
	d := DataSet{"Momentum": {"X": {Symbol: "X", Change: Float(1)}}}
	c := d.Clone()
	if !d.Equal(c) {
		t.Fatal("Clone should be equal")
	}

	c["Momentum"]["Y"] = InstrumentRecord{Symbol: "Y"}
	if _, ok := d["Momentum"]["Y"]; ok {
		t.Error("Clone must not share group maps")
	}
	if d.Equal(c) {
		t.Error("Different membership should not be equal")
	}
}

func TestSortSpec_Toggle(t *testing.T) {
	tests := []struct {
		name  string
		from  SortSpec
		field string
		want  SortSpec
	}{
		{"new field starts ascending", DefaultSort, FieldLTP, SortSpec{FieldLTP, Ascending}},
		{"same field asc flips to desc", SortSpec{FieldLTP, Ascending}, FieldLTP, SortSpec{FieldLTP, Descending}},
		{"same field desc goes back to asc", DefaultSort, FieldChange, SortSpec{FieldChange, Ascending}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Toggle(tt.field); got != tt.want {
				t.Errorf("Toggle(%q) = %+v, want %+v", tt.field, got, tt.want)
			}
		})
	}
}

func TestFilterSpec_With(t *testing.T) {
	base := FilterSpec{Text: "tc"}
	f := base.With(FieldSPDC, "yes")
	if f.Columns[FieldSPDC] != "yes" || f.Text != "tc" {
		t.Errorf("With() = %+v", f)
	}
	if len(base.Columns) != 0 {
		t.Error("With must not mutate the receiver")
	}
	if g := f.With(FieldSPDC, "All"); len(g.Columns) != 0 {
		t.Errorf("\"all\" should clear the column, got %+v", g.Columns)
	}
	if h := f.WithText(""); h.Columns[FieldSPDC] != "yes" || h.Text != "" {
		t.Errorf("WithText should keep columns, got %+v", h)
	}
	if !(FilterSpec{Text: "  "}).IsEmpty() {
		t.Error("Whitespace-only text is empty")
	}
}
