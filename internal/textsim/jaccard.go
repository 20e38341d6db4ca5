package textsim

// Jaccard returns |a ∩ b| / |a ∪ b|.
// Two empty sets are identical (1); exactly one empty set scores 0.
func Jaccard(a, b ShingleSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := 0
	for shingle := range small {
		if _, ok := large[shingle]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
