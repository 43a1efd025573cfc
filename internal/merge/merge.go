// Package merge folds partial strategy updates into the canonical data set.
package merge

import (
	"sort"

	"strategy_dash/internal/domain"
)

// Apply merges patch into dataset and returns it. A nil dataset is allocated.
//
// Strategies and symbols are created on first mention; the map key is the
// record's symbol. An existing record is
// replaced by old.Merge(incoming), so fields the patch does not carry keep
// their values. Applying the same patch twice yields the same state as once.
func Apply(dataset, patch domain.DataSet) domain.DataSet {
	if dataset == nil {
		dataset = make(domain.DataSet, len(patch))
	}
	for strategy, incoming := range patch {
		group, ok := dataset[strategy]
		if !ok {
			group = make(domain.StrategyGroup, len(incoming))
			dataset[strategy] = group
		}
		for symbol, rec := range incoming {
			rec.Symbol = symbol
			if old, exists := group[symbol]; exists {
				group[symbol] = old.Merge(rec)
			} else {
				group[symbol] = rec
			}
		}
	}
	return dataset
}

// Touched lists the strategies a patch names, sorted.
func Touched(patch domain.DataSet) []string {
	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategies lists the strategy names of a data set, sorted.
func Strategies(dataset domain.DataSet) []string {
	return Touched(dataset)
}
