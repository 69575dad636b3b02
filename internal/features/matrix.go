// Package features handles the per-item feature matrices of the distance
// based tasks: loading from disk, time-axis pooling, distance metrics and
// the per-evaluation memoization caches.
package features

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"zrcbench/internal/evalerr"
)

// Matrix is a dense row-major feature matrix: rows are time frames, columns
// are feature dimensions.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// Row returns frame i as a slice into the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// LoadMatrix parses a whitespace-separated float matrix from a text file.
// Ragged rows, non-float cells or an empty file are FileFormatErrors; a
// missing file surfaces as the underlying fs error for the caller to map.
func LoadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Matrix{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if m.Cols == 0 {
			m.Cols = len(fields)
		} else if len(fields) != m.Cols {
			return nil, &evalerr.FileFormatError{
				Path:   path,
				Reason: fmt.Sprintf("row %d has %d columns, expected %d", m.Rows+1, len(fields), m.Cols),
			}
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, &evalerr.FileFormatError{
					Path:   path,
					Reason: fmt.Sprintf("not a float array: %q", field),
				}
			}
			m.Data = append(m.Data, v)
		}
		m.Rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if m.Rows == 0 {
		return nil, &evalerr.FileFormatError{Path: path, Reason: "not a 2D array: empty file"}
	}
	return m, nil
}

// Slice returns the sub-matrix of rows [from, to).
func (m *Matrix) Slice(from, to int) *Matrix {
	return &Matrix{
		Rows: to - from,
		Cols: m.Cols,
		Data: m.Data[from*m.Cols : to*m.Cols],
	}
}
