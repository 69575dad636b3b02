package leaderboard

import (
	"fmt"
	"path/filepath"
	"sort"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/meta"
	"zrcbench/internal/scores"
	"zrcbench/internal/stats"
)

var kinds = []string{"dev", "test"}

// SizeKey addresses the pair count of one semantic correlation group.
type SizeKey struct {
	Kind    string
	Type    string
	Dataset string
}

// SemanticSizes supplies the weights of the size-weighted semantic score.
type SemanticSizes map[SizeKey]int

// Build reads the score CSVs under scoreDir and reshapes them, together
// with the submission metadata, into one leaderboard record. Every expected
// score file must exist. Build is pure read-then-reshape and is idempotent.
func Build(scoreDir string, m *meta.Meta, sizes SemanticSizes, platform *PlatformMeta) (*Entry, error) {
	entry := &Entry{
		AuthorLabel: fmt.Sprintf("%s (%s)", m.Author, m.Affiliation),
		Set:         append([]string(nil), kinds...),
		Description: m.Description,
	}
	entry.More.Meta = *m
	if platform != nil {
		entry.SubmissionID = platform.SubmissionID
		entry.SubmittedAt = platform.SubmittedAt
		entry.User = platform.User
	}

	var freqTabs, lenTabs, typeTabs, corrTabs [2]*scores.Table
	for i, kind := range kinds {
		lexPairs, err := scores.ReadTable(filepath.Join(scoreDir, scores.LexicalByPairFile(kind)))
		if err != nil {
			return nil, err
		}
		lexScores, err := lexPairs.FloatColumn("score")
		if err != nil {
			return nil, err
		}
		entry.Scores.LexicalAll.set(i, stats.Mean(lexScores))

		freqTabs[i], err = scores.ReadTable(filepath.Join(scoreDir, scores.LexicalByFrequencyFile(kind)))
		if err != nil {
			return nil, err
		}
		inVocab, err := inVocabScore(freqTabs[i])
		if err != nil {
			return nil, err
		}
		entry.Scores.LexicalInVocab.set(i, inVocab)

		lenTabs[i], err = scores.ReadTable(filepath.Join(scoreDir, scores.LexicalByLengthFile(kind)))
		if err != nil {
			return nil, err
		}

		synPairs, err := scores.ReadTable(filepath.Join(scoreDir, scores.SyntacticByPairFile(kind)))
		if err != nil {
			return nil, err
		}
		synScores, err := synPairs.FloatColumn("score")
		if err != nil {
			return nil, err
		}
		entry.Scores.Syntactic.set(i, stats.Mean(synScores))

		typeTabs[i], err = scores.ReadTable(filepath.Join(scoreDir, scores.SyntacticByTypeFile(kind)))
		if err != nil {
			return nil, err
		}

		corrTabs[i], err = scores.ReadTable(filepath.Join(scoreDir, scores.SemanticCorrelationFile(kind)))
		if err != nil {
			return nil, err
		}
		if err := semanticScores(entry, i, kind, corrTabs[i], sizes); err != nil {
			return nil, err
		}
	}

	if err := phoneticScores(entry, scoreDir); err != nil {
		return nil, err
	}

	var err error
	if entry.More.Detailed.LexicalByFrequency, err = joinTables(freqTabs, []string{"frequency"}); err != nil {
		return nil, err
	}
	if entry.More.Detailed.LexicalByLength, err = joinTables(lenTabs, []string{"length"}); err != nil {
		return nil, err
	}
	if entry.More.Detailed.SyntacticByType, err = joinTables(typeTabs, []string{"type", "subtype"}); err != nil {
		return nil, err
	}
	if entry.More.Detailed.Semantic, err = semanticDetail(corrTabs); err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *ScorePair) set(i int, v float64) {
	if i == 0 {
		p.Dev = jsonFloat(v)
	} else {
		p.Test = jsonFloat(v)
	}
}

// inVocabScore computes the n-weighted mean over the frequency bands,
// leaving the out-of-vocabulary band out.
func inVocabScore(freq *scores.Table) (float64, error) {
	var vals, weights []float64
	for i := range freq.Rows {
		band, err := freq.Cell(i, "frequency")
		if err != nil {
			return 0, err
		}
		if band == "oov" {
			continue
		}
		v, err := freq.Float(i, "score")
		if err != nil {
			return 0, err
		}
		n, err := freq.Float(i, "n")
		if err != nil {
			return 0, err
		}
		vals = append(vals, v)
		weights = append(weights, n)
	}
	return stats.WeightedMean(vals, weights), nil
}

// semanticScores fills the plain and size-weighted semantic general scores
// for one kind from the correlation table.
func semanticScores(entry *Entry, i int, kind string, corr *scores.Table, sizes SemanticSizes) error {
	byType := make(map[string][]float64)
	weightsByType := make(map[string][]float64)
	for row := range corr.Rows {
		typ, err := corr.Cell(row, "type")
		if err != nil {
			return err
		}
		dataset, err := corr.Cell(row, "dataset")
		if err != nil {
			return err
		}
		v, err := corr.Float(row, "correlation")
		if err != nil {
			return err
		}
		size, ok := sizes[SizeKey{kind, typ, dataset}]
		if !ok {
			return fmt.Errorf("no semantic size for (%s, %s, %s)", kind, typ, dataset)
		}
		byType[typ] = append(byType[typ], v)
		weightsByType[typ] = append(weightsByType[typ], float64(size))
	}

	for typ, vals := range byType {
		mean := stats.Mean(vals)
		weighted := stats.WeightedMean(vals, weightsByType[typ])
		switch typ {
		case "synthetic":
			entry.Scores.SemanticSynthetic.set(i, mean)
			entry.Scores.WeightedSemanticSynthetic.set(i, weighted)
		case "librispeech":
			entry.Scores.SemanticLibrispeech.set(i, mean)
			entry.Scores.WeightedSemanticLibrispeech.set(i, weighted)
		default:
			return &evalerr.FileFormatError{
				Path:   filepath.Join("score", scores.SemanticCorrelationFile(kind)),
				Reason: fmt.Sprintf("unknown semantic type %q", typ),
			}
		}
	}
	return nil
}

// phoneticScores fills the within/across x clean/other breakdown from the
// single phonetic score file.
func phoneticScores(entry *Entry, scoreDir string) error {
	path := filepath.Join(scoreDir, scores.PhoneticFile)
	tab, err := scores.ReadTable(path)
	if err != nil {
		return err
	}

	type rowKey struct{ sub, abxKind string }
	lookup := make(map[rowKey]float64)
	for i := range tab.Rows {
		sub, err := tab.Cell(i, "sub-dataset")
		if err != nil {
			return err
		}
		abxKind, err := tab.Cell(i, "type")
		if err != nil {
			return err
		}
		v, err := tab.Float(i, "score")
		if err != nil {
			return err
		}
		lookup[rowKey{sub, abxKind}] = v
	}

	get := func(sub, abxKind string) (float64, error) {
		v, ok := lookup[rowKey{sub, abxKind}]
		if !ok {
			return 0, &evalerr.FileFormatError{
				Path:   path,
				Reason: fmt.Sprintf("missing row (%s, %s)", sub, abxKind),
			}
		}
		return v, nil
	}

	for i, kind := range kinds {
		pairs := []struct {
			target *ScorePair
			sub    string
			abx    string
		}{
			{&entry.Scores.PhoneticCleanWithin, kind + "-clean", "within"},
			{&entry.Scores.PhoneticCleanAcross, kind + "-clean", "across"},
			{&entry.Scores.PhoneticOtherWithin, kind + "-other", "within"},
			{&entry.Scores.PhoneticOtherAcross, kind + "-other", "across"},
		}
		for _, p := range pairs {
			v, err := get(p.sub, p.abx)
			if err != nil {
				return err
			}
			p.target.set(i, v)
		}
	}
	return nil
}

// joinTables outer-joins the dev and test sides of one detailed view on the
// category key columns, keeping first-appearance order and preserving
// one-sided categories as nulls. Each side contributes its n, score and
// std columns.
func joinTables(tabs [2]*scores.Table, keyCols []string) ([]DetailRow, error) {
	type sideVals struct {
		n, score, std *float64
	}
	var order []string
	vals := [2]map[string]sideVals{{}, {}}

	for side, tab := range tabs {
		for i := range tab.Rows {
			key := ""
			for c, col := range keyCols {
				cell, err := tab.Cell(i, col)
				if err != nil {
					return nil, err
				}
				if c > 0 {
					key += "/"
				}
				key += cell
			}
			var sv sideVals
			for _, col := range []struct {
				name string
				dst  **float64
			}{{"n", &sv.n}, {"score", &sv.score}, {"std", &sv.std}} {
				v, err := tab.Float(i, col.name)
				if err != nil {
					return nil, err
				}
				*col.dst = jsonFloat(v)
			}
			if _, seen := vals[0][key]; !seen {
				if _, seen := vals[1][key]; !seen {
					order = append(order, key)
				}
			}
			vals[side][key] = sv
		}
	}

	rows := make([]DetailRow, 0, len(order))
	for _, key := range order {
		dev, test := vals[0][key], vals[1][key]
		rows = append(rows, DetailRow{
			Key:     key,
			NDev:    dev.n,
			Dev:     dev.score,
			StdDev:  dev.std,
			NTest:   test.n,
			Test:    test.score,
			StdTest: test.std,
		})
	}
	return rows, nil
}

// semanticDetail lists the per-dataset correlations of both subsets, one
// row per (set, dataset).
func semanticDetail(corrTabs [2]*scores.Table) ([]SemanticDetail, error) {
	var out []SemanticDetail
	for side, tab := range corrTabs {
		byDataset := make(map[string]*SemanticDetail)
		var datasets []string
		for i := range tab.Rows {
			typ, err := tab.Cell(i, "type")
			if err != nil {
				return nil, err
			}
			dataset, err := tab.Cell(i, "dataset")
			if err != nil {
				return nil, err
			}
			v, err := tab.Float(i, "correlation")
			if err != nil {
				return nil, err
			}
			row, ok := byDataset[dataset]
			if !ok {
				row = &SemanticDetail{Set: kinds[side], Dataset: dataset}
				byDataset[dataset] = row
				datasets = append(datasets, dataset)
			}
			switch typ {
			case "librispeech":
				row.Librispeech = jsonFloat(v)
			case "synthetic":
				row.Synthetic = jsonFloat(v)
			}
		}
		sort.Strings(datasets)
		for _, dataset := range datasets {
			out = append(out, *byDataset[dataset])
		}
	}
	return out, nil
}
