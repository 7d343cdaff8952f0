package aggregate

import (
	"strings"

	"github.com/datar-psa/rageval/api"
)

// SetCounts compares two lists as sets. Duplicates collapse, and items are
// lower-cased first unless caseSensitive is set.
// TruePositive = |predicted ∩ reference|, FalsePositive = |predicted| - TP,
// FalseNegative = |reference| - TP.
func SetCounts(predicted, reference []string, caseSensitive bool) api.ConfusionCounts {
	p := toSet(predicted, caseSensitive)
	r := toSet(reference, caseSensitive)
	var tp int
	for k := range p {
		if _, ok := r[k]; ok {
			tp++
		}
	}
	return api.ConfusionCounts{
		TruePositive:  tp,
		FalsePositive: len(p) - tp,
		FalseNegative: len(r) - tp,
	}
}

func toSet(items []string, caseSensitive bool) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if !caseSensitive {
			it = strings.ToLower(it)
		}
		set[it] = struct{}{}
	}
	return set
}
