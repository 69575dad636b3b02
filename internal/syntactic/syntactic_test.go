package syntactic

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"zrcbench/internal/evalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const goldHeader = "filename,voice,type,subtype,transcription,correct,id\n"

func TestEvaluate(t *testing.T) {
	dir := t.TempDir()
	goldFile := writeFile(t, dir, "gold.csv", goldHeader+
		"a1,v1,anaphor,agreement,the cat licks itself,1,g1\n"+
		"b1,v1,anaphor,agreement,the cat licks themselves,0,g1\n"+
		"a2,v2,anaphor,agreement,the cat licks itself,1,g1\n"+
		"b2,v2,anaphor,agreement,the cat licks themselves,0,g1\n"+
		"c1,v1,island,adjunct,who did you leave before seeing,1,g2\n"+
		"d1,v1,island,adjunct,what did you leave before seeing who,0,g2\n")
	subFile := writeFile(t, dir, "scores.txt",
		"a1 -12.5\nb1 -14.0\na2 -13.0\nb2 -13.0\nc1 -20.0\nd1 -18.0\n")

	result, err := Evaluate(goldFile, subFile)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	wantPairs := []PairScore{
		{
			Type:        "anaphor",
			Subtype:     "agreement",
			Sentence:    "the cat licks itself",
			NonSentence: "the cat licks themselves",
			Score:       0.75,
		},
		{
			Type:        "island",
			Subtype:     "adjunct",
			Sentence:    "who did you leave before seeing",
			NonSentence: "what did you leave before seeing who",
			Score:       0.0,
		},
	}
	if diff := cmp.Diff(wantPairs, result.ByPair); diff != "" {
		t.Errorf("ByPair mismatch (-want +got):\n%s", diff)
	}

	wantTypes := []TypeSummary{
		{Type: "anaphor", Subtype: "agreement", N: 1, Score: 0.75, Std: math.NaN()},
		{Type: "island", Subtype: "adjunct", N: 1, Score: 0.0, Std: math.NaN()},
	}
	if diff := cmp.Diff(wantTypes, result.ByType, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("ByType mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateDuplicateSide(t *testing.T) {
	dir := t.TempDir()
	// g1/v1 has two grammatical rows.
	goldFile := writeFile(t, dir, "gold.csv", goldHeader+
		"a,v1,anaphor,agreement,s,1,g1\n"+
		"b,v1,anaphor,agreement,s2,1,g1\n"+
		"c,v1,anaphor,agreement,n,0,g1\n")
	subFile := writeFile(t, dir, "scores.txt", "a 1\nb 2\nc 0\n")

	_, err := Evaluate(goldFile, subFile)
	var mismatch *evalerr.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Evaluate() error = %v, want MismatchError", err)
	}
	if diff := cmp.Diff([]string{"g1/v1"}, mismatch.Extra); diff != "" {
		t.Errorf("Extra mismatch (-want +got):\n%s", diff)
	}
}

func TestByTypePartition(t *testing.T) {
	pairs := []PairScore{
		{Type: "a", Subtype: "x", Score: 1},
		{Type: "a", Subtype: "x", Score: 0},
		{Type: "a", Subtype: "y", Score: 0.5},
		{Type: "b", Subtype: "x", Score: 1},
	}
	summaries := byType(pairs)

	total := 0
	for _, s := range summaries {
		total += s.N
	}
	if total != len(pairs) {
		t.Errorf("type bands cover %d pairs, want %d", total, len(pairs))
	}
	want := []TypeSummary{
		{Type: "a", Subtype: "x", N: 2, Score: 0.5, Std: math.Sqrt(0.5)},
		{Type: "a", Subtype: "y", N: 1, Score: 0.5, Std: math.NaN()},
		{Type: "b", Subtype: "x", N: 1, Score: 1, Std: math.NaN()},
	}
	opts := []cmp.Option{cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)}
	if diff := cmp.Diff(want, summaries, opts...); diff != "" {
		t.Errorf("byType mismatch (-want +got):\n%s", diff)
	}
}
