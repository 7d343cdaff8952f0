package aggregate

import "github.com/datar-psa/rageval/api"

// Majority reduces votes to the strict majority. Equal counts, including
// an empty slice, are a tie.
func Majority(votes []api.Vote) api.Outcome {
	var support, reject int
	for _, v := range votes {
		if v == api.Support {
			support++
		} else {
			reject++
		}
	}
	switch {
	case support > reject:
		return api.OutcomeSupport
	case reject > support:
		return api.OutcomeReject
	default:
		return api.OutcomeTie
	}
}
