package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metric names a pairwise distance between pooled vectors.
type Metric string

const (
	MetricCosine      Metric = "cosine"
	MetricEuclidean   Metric = "euclidean"
	MetricKL          Metric = "kl"
	MetricKLSymmetric Metric = "kl_symmetric"
)

// ParseMetric validates a distance metric name. Unknown names are
// configuration errors and fail before any file I/O.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(name); m {
	case MetricCosine, MetricEuclidean, MetricKL, MetricKLSymmetric:
		return m, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", name)
	}
}

// Distance computes the metric between two vectors of equal length.
// Degenerate inputs (zero-norm vectors for cosine, non-positive mass for the
// KL variants) yield NaN rather than a panic.
func (m Metric) Distance(a, b []float64) float64 {
	switch m {
	case MetricCosine:
		return cosineDistance(a, b)
	case MetricEuclidean:
		return floats.Distance(a, b, 2)
	case MetricKL:
		return klDivergence(a, b)
	case MetricKLSymmetric:
		return (klDivergence(a, b) + klDivergence(b, a)) / 2
	default:
		return math.NaN()
	}
}

func cosineDistance(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return 1 - floats.Dot(a, b)/(na*nb)
}

// klDivergence treats each vector as unnormalized probability mass.
func klDivergence(a, b []float64) float64 {
	sa := floats.Sum(a)
	sb := floats.Sum(b)
	if sa <= 0 || sb <= 0 {
		return math.NaN()
	}
	d := 0.0
	for i := range a {
		p := a[i] / sa
		q := b[i] / sb
		if p == 0 {
			continue
		}
		if p < 0 || q <= 0 {
			return math.NaN()
		}
		d += p * math.Log(p/q)
	}
	return d
}
