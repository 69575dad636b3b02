package scores

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"zrcbench/internal/evalerr"
)

// Table is a score CSV read back for aggregation.
type Table struct {
	Header []string
	Rows   [][]string

	path string
	cols map[string]int
}

// ReadTable reads a previously written score CSV. A missing file is an
// EntryMissingError naming the exact path.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &evalerr.EntryMissingError{Source: "score directory", Expected: path}
		}
		return nil, fmt.Errorf("open score file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, &evalerr.FileFormatError{Path: path, Reason: "empty score file"}
	}

	t := &Table{Header: records[0], Rows: records[1:], path: path}
	t.cols = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		t.cols[name] = i
	}
	return t, nil
}

// Cell returns the named column of row i.
func (t *Table) Cell(i int, column string) (string, error) {
	col, ok := t.cols[column]
	if !ok {
		return "", &evalerr.FileFormatError{Path: t.path, Reason: fmt.Sprintf("missing column %q", column)}
	}
	return t.Rows[i][col], nil
}

// Float returns the named column of row i as a float; an empty field reads
// as NaN, mirroring how NaN is written.
func (t *Table) Float(i int, column string) (float64, error) {
	raw, err := t.Cell(i, column)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &evalerr.FileFormatError{
			Path:   t.path,
			Reason: fmt.Sprintf("column %q row %d: not a float: %q", column, i+1, raw),
		}
	}
	return v, nil
}

// FloatColumn returns a whole column as floats.
func (t *Table) FloatColumn(column string) ([]float64, error) {
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		v, err := t.Float(i, column)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
