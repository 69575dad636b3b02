// Package syntactic scores grammaticality discrimination: for every pair of
// a grammatical and an ungrammatical sentence the submission should give the
// grammatical one the higher score.
package syntactic

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
	Type        string
	Subtype     string
	Sentence    string
	NonSentence string
	Score       float64
}

// TypeSummary aggregates pair scores over one (type, subtype) category.
type TypeSummary struct {
	Type    string
	Subtype string
	N       int
	Score   float64
	Std     float64
}

// Result holds the syntactic score tables.
type Result struct {
	ByPair []PairScore
	ByType []TypeSummary
}

// Evaluate loads a syntactic gold file and a submission score file, aligns
// them, and produces the per-pair and per-type score tables.
func Evaluate(goldFile, submissionFile string) (*Result, error) {
	entries, err := gold.LoadSyntactic(goldFile)
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
		ByPair: byPair,
		ByType: byType(byPair),
	}, nil
}

// pairScores compares the grammatical and ungrammatical score per (pair id,
// voice), then averages over voices. Each (pair id, voice) must carry
// exactly one row of each kind.
func pairScores(entries []gold.SyntacticEntry, byKey map[string]float64) ([]PairScore, error) {
	type side struct {
		entry gold.SyntacticEntry
		n     int
	}
	type voiced struct {
		sentence    side
		nonSentence side
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
			v.sentence.entry = e
			v.sentence.n++
		} else {
			v.nonSentence.entry = e
			v.nonSentence.n++
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
		var sentence, nonSentence gold.SyntacticEntry
		for voice, v := range voices {
			switch {
			case v.sentence.n == 0 || v.nonSentence.n == 0:
				missing = append(missing, fmt.Sprintf("%s/%s", id, voice))
			case v.sentence.n > 1 || v.nonSentence.n > 1:
				extra = append(extra, fmt.Sprintf("%s/%s", id, voice))
			default:
				sentence, nonSentence = v.sentence.entry, v.nonSentence.entry
				comparisons = append(comparisons,
					compare(byKey[sentence.Filename], byKey[nonSentence.Filename]))
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			continue
		}
		results = append(results, PairScore{
			Type:        sentence.Type,
			Subtype:     sentence.Subtype,
			Sentence:    sentence.Transcription,
			NonSentence: nonSentence.Transcription,
			Score:       stats.Mean(comparisons),
		})
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, &evalerr.MismatchError{
			Message: "each pair must have one grammatical and one ungrammatical sentence per voice",
			Missing: missing,
			Extra:   extra,
		}
	}
	return results, nil
}

// compare implements the higher-score-wins rule with half credit for ties.
func compare(sentence, nonSentence float64) float64 {
	switch {
	case sentence > nonSentence:
		return 1.0
	case sentence == nonSentence:
		return 0.5
	default:
		return 0.0
	}
}

type typeKey struct {
	typ     string
	subtype string
}

func byType(pairs []PairScore) []TypeSummary {
	grouped := make(map[typeKey][]float64)
	for _, p := range pairs {
		key := typeKey{p.Type, p.Subtype}
		grouped[key] = append(grouped[key], p.Score)
	}

	keys := make([]typeKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].subtype < keys[j].subtype
	})

	out := make([]TypeSummary, 0, len(keys))
	for _, key := range keys {
		scores := grouped[key]
		out = append(out, TypeSummary{
			Type:    key.typ,
			Subtype: key.subtype,
			N:       len(scores),
			Score:   stats.Mean(scores),
			Std:     stats.StdDev(scores),
		})
	}
	return out
}
