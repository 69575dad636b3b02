package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/features"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func defaultConfig() Config {
	return Config{Metric: features.MetricEuclidean, Pooling: features.PoolMean, Jobs: 2}
}

func TestEvaluateCrossProduct(t *testing.T) {
	dir := t.TempDir()
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile,
		"type,filename,word\n"+
			"librispeech,fa1,apple\n"+
			"librispeech,fa2,apple\n"+
			"librispeech,fb1,pear\n")
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"librispeech,mturk,apple,pear,7.5,\n")

	sub := filepath.Join(dir, "submission")
	writeFile(t, filepath.Join(sub, "librispeech", "fa1.txt"), "0.0\n")
	writeFile(t, filepath.Join(sub, "librispeech", "fa2.txt"), "2.0\n")
	writeFile(t, filepath.Join(sub, "librispeech", "fb1.txt"), "3.0\n")

	result, err := Evaluate(context.Background(), goldFile, pairsFile, sub, defaultConfig())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(result.Pairs))
	}
	// Cross product: |0-3| and |2-3| average to 2.
	if got := result.Pairs[0].Distance; math.Abs(got-2) > 1e-12 {
		t.Errorf("Distance = %v, want 2", got)
	}
}

func TestEvaluateVoiceAligned(t *testing.T) {
	dir := t.TempDir()
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile,
		"type,filename,word,voice\n"+
			"synthetic,x1,sun,v1\n"+
			"synthetic,x2,sun,v2\n"+
			"synthetic,y1,moon,v1\n"+
			"synthetic,y2,moon,v2\n")
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"synthetic,mturk,sun,moon,4.0,\n")

	sub := filepath.Join(dir, "submission")
	writeFile(t, filepath.Join(sub, "synthetic", "x1.txt"), "0.0\n")
	writeFile(t, filepath.Join(sub, "synthetic", "x2.txt"), "0.0\n")
	writeFile(t, filepath.Join(sub, "synthetic", "y1.txt"), "1.0\n")
	writeFile(t, filepath.Join(sub, "synthetic", "y2.txt"), "3.0\n")

	result, err := Evaluate(context.Background(), goldFile, pairsFile, sub, defaultConfig())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Same-voice distances 1 and 3 average to 2; no cross-voice terms.
	if got := result.Pairs[0].Distance; math.Abs(got-2) > 1e-12 {
		t.Errorf("Distance = %v, want 2", got)
	}
}

func TestEvaluateVoiceSetMismatch(t *testing.T) {
	dir := t.TempDir()
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile,
		"type,filename,word,voice\n"+
			"synthetic,x1,sun,v1\n"+
			"synthetic,y1,moon,v2\n")
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"synthetic,mturk,sun,moon,4.0,\n")

	sub := filepath.Join(dir, "submission")
	writeFile(t, filepath.Join(sub, "synthetic", "x1.txt"), "0.0\n")
	writeFile(t, filepath.Join(sub, "synthetic", "y1.txt"), "1.0\n")

	_, err := Evaluate(context.Background(), goldFile, pairsFile, sub, defaultConfig())
	var mismatch *evalerr.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Evaluate() error = %v, want MismatchError", err)
	}
}

func TestEvaluateTokenLimit(t *testing.T) {
	dir := t.TempDir()
	goldRows := "type,filename,word\n"
	for i := 0; i < 11; i++ {
		goldRows += fmt.Sprintf("librispeech,f%d,apple\n", i)
	}
	goldRows += "librispeech,g0,pear\n"
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile, goldRows)
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"librispeech,mturk,apple,pear,1.0,\n")

	_, err := Evaluate(context.Background(), goldFile, pairsFile, dir, defaultConfig())
	var validation *evalerr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Evaluate() error = %v, want ValidationError", err)
	}
}

func TestEvaluateMissingFeatureFile(t *testing.T) {
	dir := t.TempDir()
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile,
		"type,filename,word\n"+
			"librispeech,fa1,apple\n"+
			"librispeech,fb1,pear\n")
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"librispeech,mturk,apple,pear,1.0,\n")

	sub := filepath.Join(dir, "submission")
	writeFile(t, filepath.Join(sub, "librispeech", "fa1.txt"), "0.0\n")
	// fb1.txt deliberately absent.

	_, err := Evaluate(context.Background(), goldFile, pairsFile, sub, defaultConfig())
	var missing *evalerr.EntryMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Evaluate() error = %v, want EntryMissingError, got %v", err, err)
	}
	if missing.Source != "fb1" {
		t.Errorf("Source = %q, want %q", missing.Source, "fb1")
	}
}

func TestEvaluateOffPoolingRejected(t *testing.T) {
	cfg := defaultConfig()
	cfg.Pooling = features.PoolOff
	_, err := Evaluate(context.Background(), "nope.csv", "nope.csv", ".", cfg)
	if err == nil {
		t.Fatal("expected configuration error before any file I/O")
	}
}

func TestCorrelationSignConvention(t *testing.T) {
	dir := t.TempDir()
	goldRows := "type,filename,word\n"
	words := []string{"a", "b", "c", "d"}
	for _, w := range words {
		goldRows += fmt.Sprintf("librispeech,f%s,%s\n", w, w)
	}
	goldFile := filepath.Join(dir, "gold.csv")
	writeFile(t, goldFile, goldRows)

	// Distances to "a" grow as 1, 2, 3; similarity shrinks as 3, 2, 1.
	pairsFile := filepath.Join(dir, "pairs.csv")
	writeFile(t, pairsFile,
		"type,dataset,word_1,word_2,similarity,relatedness\n"+
			"librispeech,mturk,a,b,3.0,\n"+
			"librispeech,mturk,a,c,2.0,\n"+
			"librispeech,mturk,a,d,1.0,\n")

	sub := filepath.Join(dir, "submission")
	for i, w := range words {
		writeFile(t, filepath.Join(sub, "librispeech", "f"+w+".txt"),
			fmt.Sprintf("%d.0\n", i))
	}

	result, err := Evaluate(context.Background(), goldFile, pairsFile, sub, defaultConfig())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	want := []Correlation{
		{Type: "librispeech", Dataset: "mturk", Correlation: 1, PValue: 0},
	}
	if diff := cmp.Diff(want, result.Correlations); diff != "" {
		t.Errorf("Correlations mismatch (-want +got):\n%s", diff)
	}
}

func TestJudgmentColumnSelection(t *testing.T) {
	sim := func(v float64) *float64 { return &v }

	group := []PairDistance{
		{Relatedness: sim(1)},
		{Relatedness: sim(2)},
	}
	vals, err := judgmentColumn(groupKey{"librispeech", "x"}, group)
	if err != nil {
		t.Fatalf("judgmentColumn() error = %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2}, vals); diff != "" {
		t.Errorf("judgment values mismatch (-want +got):\n%s", diff)
	}

	// Neither column fully populated is a file format problem.
	broken := []PairDistance{{Similarity: sim(1)}, {Relatedness: sim(2)}}
	_, err = judgmentColumn(groupKey{"librispeech", "x"}, broken)
	var ffe *evalerr.FileFormatError
	if !errors.As(err, &ffe) {
		t.Fatalf("judgmentColumn() error = %v, want FileFormatError", err)
	}
}
