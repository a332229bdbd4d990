package evaluation

import "strconv"

// FinalGrade reduces per-period grades into one final figure, per the
// config's calculation method. It never produces NaN or Inf: every division
// is guarded, and unknown methods resolve to 0.
func FinalGrade(grades []Grade, cfg Config) float64 {
	if len(grades) == 0 {
		return 0
	}

	switch cfg.CalculationMethod {
	case MethodArithmetic:
		var sum float64
		var count int
		for _, g := range grades {
			if g.Value.Valid {
				sum += g.Value.Float64
				count++
			}
		}
		if count == 0 {
			return 0
		}
		return sum / float64(count)

	case MethodWeighted:
		if cfg.Weights == nil {
			return 0
		}
		var weightedSum, totalWeight float64
		for _, g := range grades {
			if !g.Value.Valid {
				continue
			}
			weight, ok := cfg.Weights[strconv.Itoa(g.Period)]
			if !ok {
				weight = 1
			}
			weightedSum += g.Value.Float64 * weight
			totalWeight += weight
		}
		if totalWeight <= 0 {
			return 0
		}
		return weightedSum / totalWeight

	case MethodBimesterAverage:
		// observably the same mean as MethodArithmetic; kept as its own
		// case because configs reference the method by name
		var sum float64
		var count int
		for _, g := range grades {
			if g.Value.Valid {
				sum += g.Value.Float64
				count++
			}
		}
		if count == 0 {
			return 0
		}
		return sum / float64(count)

	default:
		return 0
	}
}

// SubjectAverage is the plain mean of numeric grade values, regardless of
// the configured calculation method. Subject-level report summaries always
// use it. The second return is false when no numeric values exist.
func SubjectAverage(grades []Grade) (float64, bool) {
	var sum float64
	var count int
	for _, g := range grades {
		if g.Value.Valid {
			sum += g.Value.Float64
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
