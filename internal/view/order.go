package view

import (
	"strategy_dash/internal/domain"
	"strategy_dash/internal/filter"
)

// State of a Controller.
type State int

const (
	Frozen State = iota
	Recomputing
)

func (s State) String() string {
	if s == Recomputing {
		return "recomputing"
	}
	return "frozen"
}

// Controller keeps the row order of one strategy view stable across data updates.
//
// The order snapshot is rebuilt from scratch only when the sort or filter
// changes (or on an explicit Recompute). Data updates go through Reconcile,
// which keeps snapshot order, skips rows that stopped matching, and appends
// newly matching symbols at the tail. Not safe for concurrent use; the engine
// drives it from its single event loop.
type Controller struct {
	sort   domain.SortSpec
	filter domain.FilterSpec
	match  filter.Predicate
	state  State

	snapshot []string
	index    map[string]struct{}
}

// NewController creates a frozen controller with an empty snapshot.
func NewController(order domain.SortSpec, spec domain.FilterSpec) *Controller {
	return &Controller{
		sort:   order,
		filter: spec,
		match:  filter.Compile(spec),
		state:  Frozen,
		index:  make(map[string]struct{}),
	}
}

// Sort returns the active sort spec.
func (c *Controller) Sort() domain.SortSpec { return c.sort }

// Filter returns a copy of the active filter spec.
func (c *Controller) Filter() domain.FilterSpec { return c.filter.Clone() }

// State returns the controller state. Outside of Recompute it is always Frozen.
func (c *Controller) State() State { return c.state }

// Snapshot returns a copy of the order snapshot, including skipped symbols.
func (c *Controller) Snapshot() []string {
	out := make([]string, len(c.snapshot))
	copy(out, c.snapshot)
	return out
}

// SetSort replaces the sort spec and recomputes. The filter spec is untouched.
func (c *Controller) SetSort(order domain.SortSpec, group domain.StrategyGroup) []domain.InstrumentRecord {
	c.sort = order
	return c.Recompute(group)
}

// ToggleSort applies column-header click semantics and recomputes.
func (c *Controller) ToggleSort(field string, group domain.StrategyGroup) []domain.InstrumentRecord {
	return c.SetSort(c.sort.Toggle(field), group)
}

// SetFilter replaces the filter spec and recomputes. The sort spec is untouched.
func (c *Controller) SetFilter(spec domain.FilterSpec, group domain.StrategyGroup) []domain.InstrumentRecord {
	c.filter = spec
	c.match = filter.Compile(spec)
	return c.Recompute(group)
}

// SetColumnFilter sets one column constraint ("all" clears it) and recomputes.
func (c *Controller) SetColumnFilter(field, value string, group domain.StrategyGroup) []domain.InstrumentRecord {
	return c.SetFilter(c.filter.With(field, value), group)
}

// SetText replaces the global symbol filter and recomputes.
func (c *Controller) SetText(text string, group domain.StrategyGroup) []domain.InstrumentRecord {
	return c.SetFilter(c.filter.WithText(text), group)
}

// Recompute rebuilds the order snapshot from the current data.
func (c *Controller) Recompute(group domain.StrategyGroup) []domain.InstrumentRecord {
	c.state = Recomputing
	defer func() { c.state = Frozen }()

	rows := materialize(group, c.match, c.sort)
	c.snapshot = make([]string, len(rows))
	c.index = make(map[string]struct{}, len(rows))
	for i, r := range rows {
		c.snapshot[i] = r.Symbol
		c.index[r.Symbol] = struct{}{}
	}
	return rows
}

// Reconcile produces the displayed rows for the current data without reordering.
//
// Snapshot symbols that still match are emitted in snapshot order; symbols that
// no longer match are skipped but kept in the snapshot. Matching symbols not in
// the snapshot are appended at the tail in ascending symbol order and recorded,
// so they keep their position on later updates.
func (c *Controller) Reconcile(group domain.StrategyGroup) []domain.InstrumentRecord {
	rows := make([]domain.InstrumentRecord, 0, len(c.snapshot))
	for _, sym := range c.snapshot {
		rec, ok := group[sym]
		if ok && c.match(rec) {
			rows = append(rows, rec)
		}
	}

	for _, sym := range sortedSymbols(group) {
		if _, seen := c.index[sym]; seen {
			continue
		}
		rec := group[sym]
		if !c.match(rec) {
			continue
		}
		c.snapshot = append(c.snapshot, sym)
		c.index[sym] = struct{}{}
		rows = append(rows, rec)
	}
	return rows
}
