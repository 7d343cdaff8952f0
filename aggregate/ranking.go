package aggregate

// ContextPrecision scores a ranked list of relevance flags as average
// precision: the sum of precision@k over relevant positions k, divided by
// the number of relevant positions. Returns 0 when nothing is relevant.
func ContextPrecision(flags []bool) float64 {
	var relevant int
	var sum float64
	for k, ok := range flags {
		if !ok {
			continue
		}
		relevant++
		sum += float64(relevant) / float64(k+1)
	}
	if relevant == 0 {
		return 0
	}
	return clamp01(sum / float64(relevant))
}
