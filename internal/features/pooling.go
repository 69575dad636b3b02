package features

import (
	"fmt"
	"math"
)

// Pooling names a time-axis reduction collapsing a Matrix to one vector.
type Pooling string

const (
	PoolMin      Pooling = "min"
	PoolMax      Pooling = "max"
	PoolMean     Pooling = "mean"
	PoolSum      Pooling = "sum"
	PoolLast     Pooling = "last"
	PoolLastLast Pooling = "lastlast" // second-to-last frame
	PoolOff      Pooling = "off"      // no reduction; unusable for distances
)

// ParsePooling validates a pooling method name. Unknown names are
// configuration errors and fail before any file I/O.
func ParsePooling(name string) (Pooling, error) {
	switch p := Pooling(name); p {
	case PoolMin, PoolMax, PoolMean, PoolSum, PoolLast, PoolLastLast, PoolOff:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pooling method %q", name)
	}
}

// ValidateForDistance rejects pooling methods that do not yield a fixed-size
// vector; cross-item distances are only defined on pooled vectors.
func (p Pooling) ValidateForDistance() error {
	if p == PoolOff {
		return fmt.Errorf("pooling %q cannot be used for distance computation", p)
	}
	return nil
}

// Apply reduces m along the time axis to a single vector.
func (p Pooling) Apply(m *Matrix) ([]float64, error) {
	if m.Rows == 0 || m.Cols == 0 {
		return nil, fmt.Errorf("cannot pool an empty matrix")
	}

	out := make([]float64, m.Cols)
	switch p {
	case PoolMin:
		for j := range out {
			out[j] = math.Inf(1)
		}
		for i := 0; i < m.Rows; i++ {
			for j, v := range m.Row(i) {
				if v < out[j] {
					out[j] = v
				}
			}
		}
	case PoolMax:
		for j := range out {
			out[j] = math.Inf(-1)
		}
		for i := 0; i < m.Rows; i++ {
			for j, v := range m.Row(i) {
				if v > out[j] {
					out[j] = v
				}
			}
		}
	case PoolMean:
		for i := 0; i < m.Rows; i++ {
			for j, v := range m.Row(i) {
				out[j] += v
			}
		}
		for j := range out {
			out[j] /= float64(m.Rows)
		}
	case PoolSum:
		for i := 0; i < m.Rows; i++ {
			for j, v := range m.Row(i) {
				out[j] += v
			}
		}
	case PoolLast:
		copy(out, m.Row(m.Rows-1))
	case PoolLastLast:
		if m.Rows < 2 {
			copy(out, m.Row(0))
		} else {
			copy(out, m.Row(m.Rows-2))
		}
	default:
		return nil, fmt.Errorf("pooling %q cannot produce a vector", p)
	}
	return out, nil
}
