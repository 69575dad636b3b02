// Package stats provides the summary statistics used by the scoring pipeline:
// means, sample standard deviations, weighted means and Spearman rank
// correlation with a Student-t p-value.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean returns the arithmetic mean of xs, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation of xs. For fewer than two
// values the result is NaN (undefined, matching the banding contract).
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// WeightedMean returns the mean of xs weighted by ws. Lengths must match;
// an empty input or all-zero weights yields NaN.
func WeightedMean(xs, ws []float64) float64 {
	if len(xs) == 0 || len(xs) != len(ws) {
		return math.NaN()
	}
	total := 0.0
	for _, w := range ws {
		total += w
	}
	if total == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, ws)
}

// Spearman returns the Spearman rank correlation between x and y and its
// two-sided p-value under the Student-t approximation. Fewer than three
// observations yield (NaN, NaN).
func Spearman(x, y []float64) (rho, p float64) {
	n := len(x)
	if n != len(y) || n < 3 {
		return math.NaN(), math.NaN()
	}

	rho = stat.Correlation(Ranks(x), Ranks(y), nil)
	if math.IsNaN(rho) {
		return math.NaN(), math.NaN()
	}

	// Degenerate perfect correlations have no t-statistic.
	if rho >= 1 || rho <= -1 {
		return rho, 0
	}

	t := rho * math.Sqrt(float64(n-2)/(1-rho*rho))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p = 2 * dist.CDF(-math.Abs(t))
	return rho, p
}

// Ranks returns the 1-based ranks of xs, with ties assigned the average of
// the ranks they span.
func Ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// positions i..j hold a tie group; average rank across the group
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
