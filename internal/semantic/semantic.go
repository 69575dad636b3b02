// Package semantic scores distributional similarity: the distance between
// the pooled representations of two words is compared against human
// similarity judgments.
package semantic

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/features"
	"zrcbench/internal/gold"
	"zrcbench/internal/logging"
	"zrcbench/internal/stats"
)

// maxTokens is the upper bound on recorded tokens per (subset, word).
const maxTokens = 10

// Config selects the distance metric, the pooling method and the worker
// count for the parallel per-pair map.
type Config struct {
	Metric  features.Metric
	Pooling features.Pooling
	Jobs    int
}

// PairDistance is the machine distance computed for one word pair, with the
// human judgments carried through from the pairs table.
type PairDistance struct {
	Type        string
	Dataset     string
	Word1       string
	Word2       string
	Similarity  *float64
	Relatedness *float64
	Distance    float64
}

// Correlation is the rank correlation between machine distances and human
// judgments for one (type, dataset) group, sign-adjusted so that +1 means
// the model orders pairs the way humans do.
type Correlation struct {
	Type        string
	Dataset     string
	Correlation float64
	PValue      float64
}

// Result holds the semantic score tables.
type Result struct {
	Pairs        []PairDistance
	Correlations []Correlation
}

// Evaluate computes the distance for every pair in pairsFile using the
// pooled feature vectors under submissionDir, then correlates the distances
// against the human judgments per (type, dataset) group.
func Evaluate(ctx context.Context, goldFile, pairsFile, submissionDir string, cfg Config) (*Result, error) {
	if err := cfg.Pooling.ValidateForDistance(); err != nil {
		return nil, err
	}
	logger := logging.New("semantic")

	entries, err := gold.LoadSemantic(goldFile)
	if err != nil {
		return nil, err
	}
	pairs, err := gold.LoadPairs(pairsFile)
	if err != nil {
		return nil, err
	}

	// Index the recorded tokens per (subset, word).
	tokens := make(map[string]map[string][]gold.SemanticEntry)
	for _, e := range entries {
		words, ok := tokens[e.Type]
		if !ok {
			words = make(map[string][]gold.SemanticEntry)
			tokens[e.Type] = words
		}
		words[e.Word] = append(words[e.Word], e)
	}

	cache := features.NewPooledCache(submissionDir, cfg.Pooling)

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	logger.Info("computing pair distances",
		"pairs", len(pairs), "metric", cfg.Metric, "pooling", cfg.Pooling, "jobs", jobs)

	results := make([]PairDistance, len(pairs))
	errs := make([]error, len(pairs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, pair := range pairs {
		g.Go(func() error {
			d, err := pairDistance(pair, tokens, cache, cfg.Metric)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = PairDistance{
				Type:        pair.Type,
				Dataset:     pair.Dataset,
				Word1:       pair.Word1,
				Word2:       pair.Word2,
				Similarity:  pair.Similarity,
				Relatedness: pair.Relatedness,
				Distance:    d,
			}
			return nil
		})
	}
	_ = g.Wait() // per-pair errors are collected, not raised

	if err := evalerr.Collect("semantic evaluation", errs); err != nil {
		return nil, err
	}

	correlations, err := correlate(results)
	if err != nil {
		return nil, err
	}
	return &Result{Pairs: results, Correlations: correlations}, nil
}

// pairDistance computes the distance between the token sets of the two
// words. The voiced subset matches tokens by voice; the unvoiced subset
// averages over the full token cross-product.
func pairDistance(pair gold.SemanticPair, tokens map[string]map[string][]gold.SemanticEntry,
	cache *features.PooledCache, metric features.Metric) (float64, error) {

	left, err := wordTokens(pair, pair.Word1, tokens)
	if err != nil {
		return 0, err
	}
	right, err := wordTokens(pair, pair.Word2, tokens)
	if err != nil {
		return 0, err
	}

	if voiced(left) || voiced(right) {
		return voiceAlignedDistance(pair, left, right, cache, metric)
	}
	return crossProductDistance(pair, left, right, cache, metric)
}

func wordTokens(pair gold.SemanticPair, word string, tokens map[string]map[string][]gold.SemanticEntry) ([]gold.SemanticEntry, error) {
	ts := tokens[pair.Type][word]
	if len(ts) == 0 {
		return nil, fmt.Errorf("pair (%s, %s, %s, %s): no tokens for word %q in subset %q",
			pair.Type, pair.Dataset, pair.Word1, pair.Word2, word, pair.Type)
	}
	if len(ts) > maxTokens {
		return nil, fmt.Errorf("pair (%s, %s, %s, %s): word %q has %d tokens, limit is %d",
			pair.Type, pair.Dataset, pair.Word1, pair.Word2, word, len(ts), maxTokens)
	}
	return ts, nil
}

func voiced(tokens []gold.SemanticEntry) bool {
	for _, t := range tokens {
		if t.Voice != "" {
			return true
		}
	}
	return false
}

// voiceAlignedDistance pairs tokens by voice and averages the same-voice
// distances. The two words must be rendered by the same voice set.
func voiceAlignedDistance(pair gold.SemanticPair, left, right []gold.SemanticEntry,
	cache *features.PooledCache, metric features.Metric) (float64, error) {

	byVoice := func(ts []gold.SemanticEntry) map[string]gold.SemanticEntry {
		m := make(map[string]gold.SemanticEntry, len(ts))
		for _, t := range ts {
			m[t.Voice] = t
		}
		return m
	}
	lv, rv := byVoice(left), byVoice(right)

	var missing []string
	for voice := range lv {
		if _, ok := rv[voice]; !ok {
			missing = append(missing, fmt.Sprintf("%s:%s", pair.Word2, voice))
		}
	}
	for voice := range rv {
		if _, ok := lv[voice]; !ok {
			missing = append(missing, fmt.Sprintf("%s:%s", pair.Word1, voice))
		}
	}
	if len(missing) > 0 {
		return 0, &evalerr.MismatchError{
			Message: fmt.Sprintf("pair (%s, %s, %s, %s): voice sets differ",
				pair.Type, pair.Dataset, pair.Word1, pair.Word2),
			Missing: missing,
		}
	}

	voices := make([]string, 0, len(lv))
	for voice := range lv {
		voices = append(voices, voice)
	}
	sort.Strings(voices)

	distances := make([]float64, 0, len(voices))
	for _, voice := range voices {
		a, err := cache.Pooled(lv[voice].Filename, pair.Type)
		if err != nil {
			return 0, err
		}
		b, err := cache.Pooled(rv[voice].Filename, pair.Type)
		if err != nil {
			return 0, err
		}
		distances = append(distances, metric.Distance(a, b))
	}
	return stats.Mean(distances), nil
}

// crossProductDistance averages the distance over every (left, right) token
// combination.
func crossProductDistance(pair gold.SemanticPair, left, right []gold.SemanticEntry,
	cache *features.PooledCache, metric features.Metric) (float64, error) {

	distances := make([]float64, 0, len(left)*len(right))
	for _, lt := range left {
		a, err := cache.Pooled(lt.Filename, pair.Type)
		if err != nil {
			return 0, err
		}
		for _, rt := range right {
			b, err := cache.Pooled(rt.Filename, pair.Type)
			if err != nil {
				return 0, err
			}
			distances = append(distances, metric.Distance(a, b))
		}
	}
	return stats.Mean(distances), nil
}

type groupKey struct {
	typ     string
	dataset string
}

// correlate computes the sign-adjusted Spearman correlation per (type,
// dataset) group. The judgment column is whichever of similarity and
// relatedness is fully populated within the group; when both are, similarity
// wins.
func correlate(pairs []PairDistance) ([]Correlation, error) {
	grouped := make(map[groupKey][]PairDistance)
	for _, p := range pairs {
		key := groupKey{p.Type, p.Dataset}
		grouped[key] = append(grouped[key], p)
	}

	keys := make([]groupKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].dataset < keys[j].dataset
	})

	out := make([]Correlation, 0, len(keys))
	for _, key := range keys {
		group := grouped[key]
		judgments, err := judgmentColumn(key, group)
		if err != nil {
			return nil, err
		}
		distances := make([]float64, len(group))
		for i, p := range group {
			distances[i] = p.Distance
		}
		// Humans report similarity, the model reports distance; a good
		// model anti-correlates, so flip the sign.
		rho, p := stats.Spearman(distances, judgments)
		out = append(out, Correlation{
			Type:        key.typ,
			Dataset:     key.dataset,
			Correlation: -rho,
			PValue:      p,
		})
	}
	return out, nil
}

func judgmentColumn(key groupKey, group []PairDistance) ([]float64, error) {
	similarity := make([]float64, 0, len(group))
	relatedness := make([]float64, 0, len(group))
	for _, p := range group {
		if p.Similarity != nil {
			similarity = append(similarity, *p.Similarity)
		}
		if p.Relatedness != nil {
			relatedness = append(relatedness, *p.Relatedness)
		}
	}
	switch {
	case len(similarity) == len(group):
		return similarity, nil
	case len(relatedness) == len(group):
		return relatedness, nil
	default:
		return nil, &evalerr.FileFormatError{
			Path:   fmt.Sprintf("pairs group (%s, %s)", key.typ, key.dataset),
			Reason: "neither the similarity nor the relatedness column is fully populated",
		}
	}
}
