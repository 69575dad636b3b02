// Package gold loads the benchmark reference tables (gold files, semantic
// pairs) and flat submission score files, and aligns submissions against the
// gold key set.
package gold

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LexicalEntry is one row of a lexical gold file. Words and non-words that
// form a discrimination pair share a PairID and are rendered by several
// voices.
type LexicalEntry struct {
	Filename  string
	Voice     string
	Frequency int // occurrences in the training corpus; 0 means out-of-vocabulary
	Word      string
	Length    int
	Phones    string
	Correct   bool // true for the real word of the pair
	PairID    string
}

// SyntacticEntry is one row of a syntactic gold file. Grammatical and
// ungrammatical sentences of a pair share a PairID.
type SyntacticEntry struct {
	Filename      string
	Voice         string
	Type          string
	Subtype       string
	Transcription string
	Correct       bool // true for the grammatical sentence
	PairID        string
}

// SemanticEntry is one token of the semantic gold file: a recorded rendering
// of a word within a subset ("synthetic" carries a voice, "librispeech" does
// not).
type SemanticEntry struct {
	Type     string
	Filename string
	Word     string
	Voice    string
}

// SemanticPair is one row of a semantic pairs file: two words whose
// distributional distance is requested, with a human judgment from one of
// the two columns (the unused column is empty throughout a file).
type SemanticPair struct {
	Type        string
	Dataset     string
	Word1       string
	Word2       string
	Similarity  *float64
	Relatedness *float64
}

// LoadLexical reads a lexical gold CSV.
func LoadLexical(path string) ([]LexicalEntry, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(path, header,
		"filename", "voice", "frequency", "word", "length", "phones", "correct", "id")
	if err != nil {
		return nil, err
	}

	entries := make([]LexicalEntry, 0, len(rows))
	for i, row := range rows {
		freq, err := intField(path, i, row[cols["frequency"]], true)
		if err != nil {
			return nil, err
		}
		length, err := intField(path, i, row[cols["length"]], false)
		if err != nil {
			return nil, err
		}
		correct, err := boolField(path, i, row[cols["correct"]])
		if err != nil {
			return nil, err
		}
		entries = append(entries, LexicalEntry{
			Filename:  row[cols["filename"]],
			Voice:     row[cols["voice"]],
			Frequency: freq,
			Word:      row[cols["word"]],
			Length:    length,
			Phones:    row[cols["phones"]],
			Correct:   correct,
			PairID:    row[cols["id"]],
		})
	}
	return entries, nil
}

// LoadSyntactic reads a syntactic gold CSV.
func LoadSyntactic(path string) ([]SyntacticEntry, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(path, header,
		"filename", "voice", "type", "subtype", "transcription", "correct", "id")
	if err != nil {
		return nil, err
	}

	entries := make([]SyntacticEntry, 0, len(rows))
	for i, row := range rows {
		correct, err := boolField(path, i, row[cols["correct"]])
		if err != nil {
			return nil, err
		}
		entries = append(entries, SyntacticEntry{
			Filename:      row[cols["filename"]],
			Voice:         row[cols["voice"]],
			Type:          row[cols["type"]],
			Subtype:       row[cols["subtype"]],
			Transcription: row[cols["transcription"]],
			Correct:       correct,
			PairID:        row[cols["id"]],
		})
	}
	return entries, nil
}

// LoadSemantic reads a semantic gold CSV. The voice column is optional: the
// unaligned subset has no voices.
func LoadSemantic(path string) ([]SemanticEntry, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(path, header, "type", "filename", "word")
	if err != nil {
		return nil, err
	}
	voiceCol := -1
	for i, name := range header {
		if name == "voice" {
			voiceCol = i
		}
	}

	entries := make([]SemanticEntry, 0, len(rows))
	for _, row := range rows {
		e := SemanticEntry{
			Type:     row[cols["type"]],
			Filename: row[cols["filename"]],
			Word:     row[cols["word"]],
		}
		if voiceCol >= 0 {
			e.Voice = row[voiceCol]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadPairs reads a semantic pairs CSV. Missing judgment values are nil.
func LoadPairs(path string) ([]SemanticPair, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(path, header, "type", "dataset", "word_1", "word_2")
	if err != nil {
		return nil, err
	}
	simCol, relCol := -1, -1
	for i, name := range header {
		switch name {
		case "similarity":
			simCol = i
		case "relatedness":
			relCol = i
		}
	}

	pairs := make([]SemanticPair, 0, len(rows))
	for i, row := range rows {
		p := SemanticPair{
			Type:    row[cols["type"]],
			Dataset: row[cols["dataset"]],
			Word1:   row[cols["word_1"]],
			Word2:   row[cols["word_2"]],
		}
		if simCol >= 0 {
			if p.Similarity, err = floatField(path, i, row[simCol]); err != nil {
				return nil, err
			}
		}
		if relCol >= 0 {
			if p.Relatedness, err = floatField(path, i, row[relCol]); err != nil {
				return nil, err
			}
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gold file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	return records[0], records[1:], nil
}

// columnIndex maps required column names to their positions in header.
func columnIndex(path string, header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}
	return idx, nil
}

func intField(path string, row int, raw string, emptyOK bool) (int, error) {
	if raw == "" && emptyOK {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: not an integer: %q", path, row+2, raw)
	}
	return v, nil
}

func boolField(path string, row int, raw string) (bool, error) {
	switch raw {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("%s row %d: correct must be 0 or 1, got %q", path, row+2, raw)
	}
}

func floatField(path string, row int, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s row %d: not a float: %q", path, row+2, raw)
	}
	return &v, nil
}
