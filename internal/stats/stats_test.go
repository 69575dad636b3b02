package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"simple", []float64{1, 2, 3}, 2},
		{"single", []float64{0.5}, 0.5},
		{"negative", []float64{-1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.in); !almostEqual(got, tt.want) {
				t.Errorf("Mean(%v) = %f, want %f", tt.in, got, tt.want)
			}
		})
	}

	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean(nil) = %f, want NaN", got)
	}
}

func TestStdDev(t *testing.T) {
	// sample stddev of {2,4,4,4,5,5,7,9} is ~2.138
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2.13808993529939) > 1e-9 {
		t.Errorf("StdDev = %f", got)
	}

	if got := StdDev([]float64{0.5}); !math.IsNaN(got) {
		t.Errorf("StdDev of one value = %f, want NaN", got)
	}
}

func TestWeightedMean_EqualWeightsMatchesMean(t *testing.T) {
	xs := []float64{0.2, 0.4, 0.9, 0.7}
	ws := []float64{3, 3, 3, 3}
	if got, want := WeightedMean(xs, ws), Mean(xs); !almostEqual(got, want) {
		t.Errorf("WeightedMean with equal weights = %f, want %f", got, want)
	}
}

func TestWeightedMean(t *testing.T) {
	got := WeightedMean([]float64{1, 0}, []float64{3, 1})
	if !almostEqual(got, 0.75) {
		t.Errorf("WeightedMean = %f, want 0.75", got)
	}

	if got := WeightedMean([]float64{1}, []float64{0}); !math.IsNaN(got) {
		t.Errorf("all-zero weights = %f, want NaN", got)
	}
}

func TestRanks(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"distinct", []float64{10, 30, 20}, []float64{1, 3, 2}},
		{"ties averaged", []float64{1, 2, 2, 3}, []float64{1, 2.5, 2.5, 4}},
		{"all equal", []float64{5, 5, 5}, []float64{2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Ranks(tt.in)); diff != "" {
				t.Errorf("Ranks(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSpearman_MonotonicDecreasing(t *testing.T) {
	// A strictly decreasing function of x has rank correlation exactly -1.
	x := []float64{0.1, 0.4, 0.2, 0.9, 0.6}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 1 / (1 + v)
	}
	rho, p := Spearman(x, y)
	if !almostEqual(rho, -1) {
		t.Errorf("rho = %f, want -1", rho)
	}
	if !almostEqual(p, 0) {
		t.Errorf("p = %f, want 0", p)
	}
}

func TestSpearman_PositiveAssociation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{1.1, 2.3, 2.9, 4.5, 5.1, 6.7}
	rho, p := Spearman(x, y)
	if !almostEqual(rho, 1) {
		t.Errorf("rho = %f, want 1", rho)
	}
	if p > 0.001 {
		t.Errorf("p = %f, want ~0", p)
	}
}

func TestSpearman_TooFew(t *testing.T) {
	rho, p := Spearman([]float64{1, 2}, []float64{2, 1})
	if !math.IsNaN(rho) || !math.IsNaN(p) {
		t.Errorf("Spearman with n=2 = (%f, %f), want NaNs", rho, p)
	}
}

func TestSpearman_ConstantSeries(t *testing.T) {
	rho, _ := Spearman([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	if !math.IsNaN(rho) {
		t.Errorf("constant series rho = %f, want NaN", rho)
	}
}
