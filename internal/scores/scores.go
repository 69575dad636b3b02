// Package scores writes the per-task score tables to their canonical CSV
// files and reads them back for leaderboard aggregation. Floats are written
// with 4 decimal digits; NaN becomes an empty field.
package scores

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"zrcbench/internal/lexical"
	"zrcbench/internal/phonetic"
	"zrcbench/internal/semantic"
	"zrcbench/internal/syntactic"
)

// PhoneticFile is the single phonetic score file; it carries dev and test
// rows together.
const PhoneticFile = "score_phonetic.csv"

func LexicalByPairFile(kind string) string {
	return fmt.Sprintf("score_lexical_%s_by_pair.csv", kind)
}

func LexicalByFrequencyFile(kind string) string {
	return fmt.Sprintf("score_lexical_%s_by_frequency.csv", kind)
}

func LexicalByLengthFile(kind string) string {
	return fmt.Sprintf("score_lexical_%s_by_length.csv", kind)
}

func SyntacticByPairFile(kind string) string {
	return fmt.Sprintf("score_syntactic_%s_by_pair.csv", kind)
}

func SyntacticByTypeFile(kind string) string {
	return fmt.Sprintf("score_syntactic_%s_by_type.csv", kind)
}

func SemanticPairsFile(kind string) string {
	return fmt.Sprintf("score_semantic_%s_pairs.csv", kind)
}

func SemanticCorrelationFile(kind string) string {
	return fmt.Sprintf("score_semantic_%s_correlation.csv", kind)
}

// WriteLexical writes the three lexical tables for kind ("dev" or "test").
func WriteLexical(dir, kind string, r *lexical.Result) error {
	byPair := [][]string{{"word", "non word", "score"}}
	for _, p := range r.ByPair {
		byPair = append(byPair, []string{p.Word, p.NonWord, cell(p.Score)})
	}
	if err := writeCSV(filepath.Join(dir, LexicalByPairFile(kind)), byPair); err != nil {
		return err
	}

	byFreq := [][]string{{"frequency", "n", "score", "std"}}
	for _, b := range r.ByFrequency {
		byFreq = append(byFreq, []string{b.Band, strconv.Itoa(b.N), cell(b.Score), cell(b.Std)})
	}
	if err := writeCSV(filepath.Join(dir, LexicalByFrequencyFile(kind)), byFreq); err != nil {
		return err
	}

	byLength := [][]string{{"length", "n", "score", "std"}}
	for _, b := range r.ByLength {
		byLength = append(byLength, []string{strconv.Itoa(b.Length), strconv.Itoa(b.N), cell(b.Score), cell(b.Std)})
	}
	return writeCSV(filepath.Join(dir, LexicalByLengthFile(kind)), byLength)
}

// WriteSyntactic writes the two syntactic tables for kind.
func WriteSyntactic(dir, kind string, r *syntactic.Result) error {
	byPair := [][]string{{"sentence", "non sentence", "score"}}
	for _, p := range r.ByPair {
		byPair = append(byPair, []string{p.Sentence, p.NonSentence, cell(p.Score)})
	}
	if err := writeCSV(filepath.Join(dir, SyntacticByPairFile(kind)), byPair); err != nil {
		return err
	}

	byType := [][]string{{"type", "subtype", "n", "score", "std"}}
	for _, s := range r.ByType {
		byType = append(byType, []string{s.Type, s.Subtype, strconv.Itoa(s.N), cell(s.Score), cell(s.Std)})
	}
	return writeCSV(filepath.Join(dir, SyntacticByTypeFile(kind)), byType)
}

// WriteSemantic writes the pair distances and the correlation table for kind.
func WriteSemantic(dir, kind string, r *semantic.Result) error {
	pairs := [][]string{{"type", "dataset", "word_1", "word_2", "similarity", "relatedness", "score"}}
	for _, p := range r.Pairs {
		pairs = append(pairs, []string{
			p.Type, p.Dataset, p.Word1, p.Word2,
			optCell(p.Similarity), optCell(p.Relatedness), cell(p.Distance),
		})
	}
	if err := writeCSV(filepath.Join(dir, SemanticPairsFile(kind)), pairs); err != nil {
		return err
	}

	correlations := [][]string{{"type", "dataset", "correlation", "p_value"}}
	for _, c := range r.Correlations {
		correlations = append(correlations, []string{c.Type, c.Dataset, cell(c.Correlation), cell(c.PValue)})
	}
	return writeCSV(filepath.Join(dir, SemanticCorrelationFile(kind)), correlations)
}

// WritePhonetic writes the ABX error rates; rows from several Evaluate calls
// (dev and test) are written together.
func WritePhonetic(dir string, rows []phonetic.Score) error {
	records := [][]string{{"dataset", "sub-dataset", "type", "score"}}
	for _, s := range rows {
		records = append(records, []string{s.Dataset, s.SubDataset, s.Kind, cell(s.Score)})
	}
	return writeCSV(filepath.Join(dir, PhoneticFile), records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// cell renders a float with 4 decimal digits; NaN becomes an empty field.
func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func optCell(v *float64) string {
	if v == nil {
		return ""
	}
	return cell(*v)
}
