// Package phonetic scores phone discriminability with the ABX test: given
// two tokens a, x of one phone and a token b of another, all sharing the
// surrounding phone context, the representation should place x closer to a
// than to b.
package phonetic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/features"
	"zrcbench/internal/logging"
	"zrcbench/internal/stats"
)

const (
	// maxGroupSize bounds the tokens per (phone, context, speaker) group.
	maxGroupSize = 10
	// maxAcrossSpeakers bounds how many other speakers contribute X tokens
	// in the across-speaker test.
	maxAcrossSpeakers = 5
)

// Config selects the distance metric, the pooling method, the frame shift of
// the submitted features (seconds per frame) and the worker count.
type Config struct {
	Metric     features.Metric
	Pooling    features.Pooling
	FrameShift float64
	Jobs       int
}

// Score is the ABX error rate for one sub-dataset and test kind.
type Score struct {
	Dataset    string // "dev" or "test"
	SubDataset string // e.g. "dev-clean"
	Kind       string // "within" or "across"
	Score      float64
}

// Evaluate runs the within- and across-speaker ABX tests over the clean and
// other sub-datasets of kind ("dev" or "test"). Item files live at
// <datasetDir>/phonetic/<sub>/<sub>.item, feature files at
// <submissionDir>/phonetic/<sub>/<file>.txt.
func Evaluate(ctx context.Context, datasetDir, submissionDir, kind string, cfg Config) ([]Score, error) {
	if kind != "dev" && kind != "test" {
		return nil, fmt.Errorf("unknown dataset kind %q (want dev or test)", kind)
	}
	if err := cfg.Pooling.ValidateForDistance(); err != nil {
		return nil, err
	}
	if cfg.FrameShift <= 0 {
		return nil, fmt.Errorf("frame shift must be positive, got %v", cfg.FrameShift)
	}
	logger := logging.New("phonetic")

	var scores []Score
	for _, sub := range []string{kind + "-clean", kind + "-other"} {
		itemFile := filepath.Join(datasetDir, "phonetic", sub, sub+".item")
		featureDir := filepath.Join(submissionDir, "phonetic", sub)

		tokens, err := loadItems(itemFile)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", itemFile, err)
		}
		logger.Info("running abx", "sub_dataset", sub, "tokens", len(tokens))

		ev, err := newEvaluator(ctx, tokens, featureDir, cfg)
		if err != nil {
			return nil, err
		}
		for _, testKind := range []string{"within", "across"} {
			score, err := ev.run(ctx, testKind)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", sub, testKind, err)
			}
			scores = append(scores, Score{
				Dataset:    kind,
				SubDataset: sub,
				Kind:       testKind,
				Score:      score,
			})
		}
	}
	return scores, nil
}

// token is one row of an item file: a phone occurrence within a source
// recording, with its surrounding context.
type token struct {
	file          string
	onset, offset float64
	phone         string
	prev, next    string
	speaker       string
}

type contextKey struct {
	prev, next string
}

type cellKey struct {
	ctx     contextKey
	speaker string
}

type evaluator struct {
	cfg   Config
	vecs  [][]float64
	cells map[cellKey]map[string][]int // phone -> token indices
}

// newEvaluator pools every token's feature frames in parallel and groups the
// tokens into (context, speaker) cells.
func newEvaluator(ctx context.Context, tokens []token, featureDir string, cfg Config) (*evaluator, error) {
	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	cache := features.NewMatrixCache()
	vecs := make([][]float64, len(tokens))
	errs := make([]error, len(tokens))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, tok := range tokens {
		g.Go(func() error {
			vecs[i], errs[i] = poolToken(tok, featureDir, cache, cfg)
			return nil
		})
	}
	_ = g.Wait() // per-token errors are collected, not raised

	if err := evalerr.Collect("phonetic pooling", errs); err != nil {
		return nil, err
	}

	cells := make(map[cellKey]map[string][]int)
	var oversized []error
	for i, tok := range tokens {
		key := cellKey{contextKey{tok.prev, tok.next}, tok.speaker}
		phones, ok := cells[key]
		if !ok {
			phones = make(map[string][]int)
			cells[key] = phones
		}
		phones[tok.phone] = append(phones[tok.phone], i)
	}
	for key, phones := range cells {
		for phone, members := range phones {
			if len(members) > maxGroupSize {
				oversized = append(oversized, fmt.Errorf(
					"group (%s, %s-%s, %s) has %d tokens, limit is %d",
					phone, key.ctx.prev, key.ctx.next, key.speaker, len(members), maxGroupSize))
			}
		}
	}
	if err := evalerr.Collect("phonetic grouping", oversized); err != nil {
		return nil, err
	}

	return &evaluator{cfg: cfg, vecs: vecs, cells: cells}, nil
}

// poolToken cuts the token's frames out of its recording's feature matrix
// and pools them. Frame i covers the instant i*shift + shift/2.
func poolToken(tok token, featureDir string, cache *features.MatrixCache, cfg Config) ([]float64, error) {
	path := filepath.Join(featureDir, tok.file+".txt")
	m, err := cache.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &evalerr.EntryMissingError{Source: tok.file, Expected: path}
		}
		return nil, err
	}

	lo, hi := -1, -1
	for i := 0; i < m.Rows; i++ {
		center := float64(i)*cfg.FrameShift + cfg.FrameShift/2
		if center >= tok.onset && center < tok.offset {
			if lo < 0 {
				lo = i
			}
			hi = i + 1
		}
	}
	if lo < 0 {
		return nil, &evalerr.FileFormatError{
			Path: path,
			Reason: fmt.Sprintf("no frames inside [%v, %v) at frame shift %v",
				tok.onset, tok.offset, cfg.FrameShift),
		}
	}
	return cfg.Pooling.Apply(m.Slice(lo, hi))
}

// run scores every cell in parallel and averages. The returned value is the
// ABX error rate, 1 - discrimination score.
func (e *evaluator) run(ctx context.Context, testKind string) (float64, error) {
	if testKind != "within" && testKind != "across" {
		return 0, fmt.Errorf("unknown abx kind %q (want within or across)", testKind)
	}

	keys := make([]cellKey, 0, len(e.cells))
	for key := range e.cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ctx != b.ctx {
			if a.ctx.prev != b.ctx.prev {
				return a.ctx.prev < b.ctx.prev
			}
			return a.ctx.next < b.ctx.next
		}
		return a.speaker < b.speaker
	})

	jobs := e.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}
	results := make([]float64, len(keys))
	defined := make([]bool, len(keys))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, key := range keys {
		g.Go(func() error {
			if testKind == "within" {
				results[i], defined[i] = e.withinCell(key)
			} else {
				results[i], defined[i] = e.acrossCell(key)
			}
			return nil
		})
	}
	_ = g.Wait()

	var cellScores []float64
	for i := range keys {
		if defined[i] {
			cellScores = append(cellScores, results[i])
		}
	}
	if len(cellScores) == 0 {
		return 0, fmt.Errorf("no scorable cells for %s-speaker abx", testKind)
	}
	return 1 - stats.Mean(cellScores), nil
}

// withinCell scores one (context, speaker) cell: X tokens come from the same
// group as A.
func (e *evaluator) withinCell(key cellKey) (float64, bool) {
	phones := sortedPhones(e.cells[key])
	var pairScores []float64
	for i := 0; i < len(phones); i++ {
		for j := i + 1; j < len(phones); j++ {
			a := e.cells[key][phones[i]]
			b := e.cells[key][phones[j]]

			var dirs []float64
			if s, ok := e.direction(a, b, a, true); ok {
				dirs = append(dirs, s)
			}
			if s, ok := e.direction(b, a, b, true); ok {
				dirs = append(dirs, s)
			}
			if len(dirs) > 0 {
				pairScores = append(pairScores, stats.Mean(dirs))
			}
		}
	}
	if len(pairScores) == 0 {
		return 0, false
	}
	return stats.Mean(pairScores), true
}

// acrossCell scores one (context, speaker) cell: X tokens come from other
// speakers' groups of A's phone in the same context, at most
// maxAcrossSpeakers of them, lexicographically first.
func (e *evaluator) acrossCell(key cellKey) (float64, bool) {
	phones := sortedPhones(e.cells[key])
	var pairScores []float64
	for i := 0; i < len(phones); i++ {
		for j := i + 1; j < len(phones); j++ {
			a := e.cells[key][phones[i]]
			b := e.cells[key][phones[j]]

			var dirs []float64
			if x := e.otherSpeakerTokens(key, phones[i]); len(x) > 0 {
				if s, ok := e.direction(a, b, x, false); ok {
					dirs = append(dirs, s)
				}
			}
			if x := e.otherSpeakerTokens(key, phones[j]); len(x) > 0 {
				if s, ok := e.direction(b, a, x, false); ok {
					dirs = append(dirs, s)
				}
			}
			if len(dirs) > 0 {
				pairScores = append(pairScores, stats.Mean(dirs))
			}
		}
	}
	if len(pairScores) == 0 {
		return 0, false
	}
	return stats.Mean(pairScores), true
}

// direction computes the one-sided ABX score: the fraction of (a, b, x)
// triples where x lands closer to a than to b, with half credit for ties.
// When sameSet is true, X is the A group and x == a triples are skipped.
func (e *evaluator) direction(a, b, x []int, sameSet bool) (float64, bool) {
	sum, n := 0.0, 0
	for _, ai := range a {
		for _, xi := range x {
			if sameSet && ai == xi {
				continue
			}
			dax := e.cfg.Metric.Distance(e.vecs[ai], e.vecs[xi])
			for _, bi := range b {
				dbx := e.cfg.Metric.Distance(e.vecs[bi], e.vecs[xi])
				switch {
				case dax < dbx:
					sum += 1.0
				case dax == dbx:
					sum += 0.5
				}
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// otherSpeakerTokens gathers X tokens of phone in key's context from up to
// maxAcrossSpeakers other speakers.
func (e *evaluator) otherSpeakerTokens(key cellKey, phone string) []int {
	var speakers []string
	for other := range e.cells {
		if other.ctx != key.ctx || other.speaker == key.speaker {
			continue
		}
		if len(e.cells[other][phone]) > 0 {
			speakers = append(speakers, other.speaker)
		}
	}
	sort.Strings(speakers)
	if len(speakers) > maxAcrossSpeakers {
		speakers = speakers[:maxAcrossSpeakers]
	}

	var xs []int
	for _, speaker := range speakers {
		xs = append(xs, e.cells[cellKey{key.ctx, speaker}][phone]...)
	}
	return xs
}

func sortedPhones(phones map[string][]int) []string {
	out := make([]string, 0, len(phones))
	for phone := range phones {
		out = append(out, phone)
	}
	sort.Strings(out)
	return out
}
