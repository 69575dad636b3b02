// Package lexical scores spot-the-word discrimination: for every word /
// non-word pair the submission should give the real word the higher score.
package lexical

import (
	"fmt"
	"sort"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/gold"
	"zrcbench/internal/stats"
)

// PairScore is the per-pair result, averaged over the voices rendering the
// pair.
type PairScore struct {
	Word      string
	NonWord   string
	Frequency int
	Length    int
	Score     float64
}

// BandSummary aggregates pair scores over one frequency band.
type BandSummary struct {
	Band  string
	N     int
	Score float64
	Std   float64
}

// LengthSummary aggregates pair scores over one phone length.
type LengthSummary struct {
	Length int
	N      int
	Score  float64
	Std    float64
}

// Result holds the three lexical score tables.
type Result struct {
	ByPair      []PairScore
	ByFrequency []BandSummary
	ByLength    []LengthSummary
}

// bands are the frequency buckets, ordered for reporting. Intervals are
// half-open on the upper edge; frequency 0 means the word never occurs in
// the training corpus.
var bands = []struct {
	label   string
	lo, hi  int
	openEnd bool
}{
	{label: "oov", lo: 0, hi: 1},
	{label: "1-5", lo: 1, hi: 5},
	{label: "6-20", lo: 5, hi: 20},
	{label: "21-100", lo: 20, hi: 100},
	{label: ">100", lo: 100, openEnd: true},
}

// FrequencyBand maps a training-corpus frequency to its band label.
func FrequencyBand(freq int) string {
	for _, b := range bands {
		if freq >= b.lo && (b.openEnd || freq < b.hi) {
			return b.label
		}
	}
	return "oov"
}

// Evaluate loads a lexical gold file and a submission score file, aligns
// them, and produces the per-pair and banded score tables.
func Evaluate(goldFile, submissionFile string) (*Result, error) {
	entries, err := gold.LoadLexical(goldFile)
	if err != nil {
		return nil, err
	}
	scores, err := gold.LoadScores(submissionFile)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Filename
	}
	byKey, err := gold.AlignScores(keys, scores)
	if err != nil {
		return nil, err
	}

	byPair, err := pairScores(entries, byKey)
	if err != nil {
		return nil, err
	}

	return &Result{
		ByPair:      byPair,
		ByFrequency: byFrequency(byPair),
		ByLength:    byLength(byPair),
	}, nil
}

// pairScores compares the word and non-word score per (pair id, voice), then
// averages over voices. Each (pair id, voice) must carry exactly one word
// and one non-word row.
func pairScores(entries []gold.LexicalEntry, byKey map[string]float64) ([]PairScore, error) {
	type side struct {
		entry gold.LexicalEntry
		n     int
	}
	type voiced struct {
		word    side
		nonWord side
	}

	groups := make(map[string]map[string]*voiced)
	for _, e := range entries {
		voices, ok := groups[e.PairID]
		if !ok {
			voices = make(map[string]*voiced)
			groups[e.PairID] = voices
		}
		v, ok := voices[e.Voice]
		if !ok {
			v = &voiced{}
			voices[e.Voice] = v
		}
		if e.Correct {
			v.word.entry = e
			v.word.n++
		} else {
			v.nonWord.entry = e
			v.nonWord.n++
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var missing, extra []string
	results := make([]PairScore, 0, len(ids))
	for _, id := range ids {
		voices := groups[id]
		var comparisons []float64
		var word, nonWord gold.LexicalEntry
		for voice, v := range voices {
			switch {
			case v.word.n == 0 || v.nonWord.n == 0:
				missing = append(missing, fmt.Sprintf("%s/%s", id, voice))
			case v.word.n > 1 || v.nonWord.n > 1:
				extra = append(extra, fmt.Sprintf("%s/%s", id, voice))
			default:
				word, nonWord = v.word.entry, v.nonWord.entry
				comparisons = append(comparisons,
					compare(byKey[word.Filename], byKey[nonWord.Filename]))
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			continue
		}
		results = append(results, PairScore{
			Word:      word.Word,
			NonWord:   nonWord.Word,
			Frequency: word.Frequency,
			Length:    word.Length,
			Score:     stats.Mean(comparisons),
		})
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, &evalerr.MismatchError{
			Message: "each pair must have one word and one non-word per voice",
			Missing: missing,
			Extra:   extra,
		}
	}
	return results, nil
}

// compare implements the higher-score-wins rule with half credit for ties.
func compare(word, nonWord float64) float64 {
	switch {
	case word > nonWord:
		return 1.0
	case word == nonWord:
		return 0.5
	default:
		return 0.0
	}
}

func byFrequency(pairs []PairScore) []BandSummary {
	grouped := make(map[string][]float64)
	for _, p := range pairs {
		band := FrequencyBand(p.Frequency)
		grouped[band] = append(grouped[band], p.Score)
	}

	var out []BandSummary
	for _, b := range bands {
		scores, ok := grouped[b.label]
		if !ok {
			continue
		}
		out = append(out, BandSummary{
			Band:  b.label,
			N:     len(scores),
			Score: stats.Mean(scores),
			Std:   stats.StdDev(scores),
		})
	}
	return out
}

func byLength(pairs []PairScore) []LengthSummary {
	grouped := make(map[int][]float64)
	for _, p := range pairs {
		grouped[p.Length] = append(grouped[p.Length], p.Score)
	}

	lengths := make([]int, 0, len(grouped))
	for l := range grouped {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)

	out := make([]LengthSummary, 0, len(lengths))
	for _, l := range lengths {
		scores := grouped[l]
		out = append(out, LengthSummary{
			Length: l,
			N:      len(scores),
			Score:  stats.Mean(scores),
			Std:    stats.StdDev(scores),
		})
	}
	return out
}
