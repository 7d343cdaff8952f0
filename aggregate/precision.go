// Package aggregate turns verdict counts and relevance flags into scores.
package aggregate

import (
	"github.com/datar-psa/rageval/api"
)

// Precision returns tp/(tp+fp). With no predictions it returns 0.
func Precision(tp, fp int) float64 {
	tp, fp = nonNegative(tp), nonNegative(fp)
	if tp+fp == 0 {
		return 0
	}
	return clamp01(float64(tp) / float64(tp+fp))
}

// Recall returns tp/(tp+fn). With nothing to recall it returns 1.
func Recall(tp, fn int) float64 {
	tp, fn = nonNegative(tp), nonNegative(fn)
	if tp+fn == 0 {
		return 1
	}
	return clamp01(float64(tp) / float64(tp+fn))
}

// F1 returns the harmonic mean of p and r, or 0 when both are 0
func F1(p, r float64) float64 {
	p, r = clamp01(p), clamp01(r)
	if p+r == 0 {
		return 0
	}
	return clamp01(2 * p * r / (p + r))
}

// CountsPrecision returns Precision of c
func CountsPrecision(c api.ConfusionCounts) float64 {
	return Precision(c.TruePositive, c.FalsePositive)
}

// CountsRecall returns Recall of c
func CountsRecall(c api.ConfusionCounts) float64 {
	return Recall(c.TruePositive, c.FalseNegative)
}

// CountsF1 returns F1 of c
func CountsF1(c api.ConfusionCounts) float64 {
	return F1(CountsPrecision(c), CountsRecall(c))
}

// Select returns the component of c named by mode. An empty mode selects F1.
func Select(c api.ConfusionCounts, mode api.Mode) float64 {
	switch mode {
	case api.ModePrecision:
		return CountsPrecision(c)
	case api.ModeRecall:
		return CountsRecall(c)
	default:
		return CountsF1(c)
	}
}

// CountVerdicts returns the number of supported and unsupported verdicts.
// Undetermined verdicts count as unsupported, unless strict is set, in
// which case the first one yields api.ErrAmbiguousVerdict.
func CountVerdicts(verdicts []api.Verdict, strict bool) (supported, unsupported int, err error) {
	for _, v := range verdicts {
		switch v {
		case api.Supported:
			supported++
		case api.Undetermined:
			if strict {
				return 0, 0, api.ErrAmbiguousVerdict
			}
			unsupported++
		default:
			unsupported++
		}
	}
	return supported, unsupported, nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
