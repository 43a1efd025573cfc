// Package view derives the displayed rows of a strategy group.
package view

import (
	"sort"
	"strings"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/filter"
)

// Materialize filters and sorts a group into a fresh slice. The group is not modified.
//
// Rows start in ascending symbol order and are then stable-sorted by order,
// so ties always come out in symbol order. Rows missing the sort field go last
// in either direction.
func Materialize(group domain.StrategyGroup, spec domain.FilterSpec, order domain.SortSpec) []domain.InstrumentRecord {
	return materialize(group, filter.Compile(spec), order)
}

func materialize(group domain.StrategyGroup, match filter.Predicate, order domain.SortSpec) []domain.InstrumentRecord {
	rows := make([]domain.InstrumentRecord, 0, len(group))
	for _, sym := range sortedSymbols(group) {
		rec := group[sym]
		if match(rec) {
			rows = append(rows, rec)
		}
	}
	SortRecords(rows, order)
	return rows
}

// SortRecords stable-sorts rows in place.
func SortRecords(rows []domain.InstrumentRecord, order domain.SortSpec) {
	if order.Field == "" {
		return
	}
	desc := order.Direction == domain.Descending
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j], order.Field, desc)
	})
}

func less(a, b domain.InstrumentRecord, field string, desc bool) bool {
	switch domain.KindOf(field) {
	case domain.KindNumeric:
		x, okA := a.Number(field)
		y, okB := b.Number(field)
		if !okA || !okB {
			return okA && !okB
		}
		if desc {
			return x > y
		}
		return x < y
	case domain.KindText, domain.KindFlag:
		x, okA := a.Text(field)
		y, okB := b.Text(field)
		if !okA || !okB {
			return okA && !okB
		}
		c := strings.Compare(x, y)
		if desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func sortedSymbols(group domain.StrategyGroup) []string {
	syms := make([]string, 0, len(group))
	for sym := range group {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
