package scores

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/lexical"
	"zrcbench/internal/phonetic"
)

func TestWriteLexicalFormatting(t *testing.T) {
	dir := t.TempDir()
	result := &lexical.Result{
		ByPair: []lexical.PairScore{
			{Word: "brick", NonWord: "blick", Score: 0.75},
		},
		ByFrequency: []lexical.BandSummary{
			{Band: "oov", N: 1, Score: 0.5, Std: math.NaN()},
		},
		ByLength: []lexical.LengthSummary{
			{Length: 4, N: 1, Score: 0.75, Std: math.NaN()},
		},
	}
	if err := WriteLexical(dir, "dev", result); err != nil {
		t.Fatalf("WriteLexical() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "score_lexical_dev_by_frequency.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// NaN std serializes as an empty field, floats carry 4 decimals.
	want := "frequency,n,score,std\noov,1,0.5000,\n"
	if string(raw) != want {
		t.Errorf("by_frequency = %q, want %q", raw, want)
	}

	table, err := ReadTable(filepath.Join(dir, LexicalByPairFile("dev")))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if diff := cmp.Diff([]string{"word", "non word", "score"}, table.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	score, err := table.Float(0, "score")
	if err != nil {
		t.Fatalf("Float() error = %v", err)
	}
	if score != 0.75 {
		t.Errorf("score = %v, want 0.75", score)
	}
}

func TestPhoneticRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rows := []phonetic.Score{
		{Dataset: "dev", SubDataset: "dev-clean", Kind: "within", Score: 0.0321},
		{Dataset: "dev", SubDataset: "dev-clean", Kind: "across", Score: 0.0543},
	}
	if err := WritePhonetic(dir, rows); err != nil {
		t.Fatalf("WritePhonetic() error = %v", err)
	}

	table, err := ReadTable(filepath.Join(dir, PhoneticFile))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	got, err := table.FloatColumn("score")
	if err != nil {
		t.Fatalf("FloatColumn() error = %v", err)
	}
	if diff := cmp.Diff([]float64{0.0321, 0.0543}, got); diff != "" {
		t.Errorf("scores mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "score_phonetic.csv"))
	var missing *evalerr.EntryMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("ReadTable() error = %v, want EntryMissingError", err)
	}
	if filepath.Base(missing.Expected) != "score_phonetic.csv" {
		t.Errorf("Expected = %q, want the exact missing path", missing.Expected)
	}
}

func TestFloatEmptyFieldIsNaN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	if err := os.WriteFile(path, []byte("a,b\n1.5,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	v, err := table.Float(0, "b")
	if err != nil {
		t.Fatalf("Float() error = %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("Float(empty) = %v, want NaN", v)
	}
	if _, err := table.Float(0, "absent"); err == nil {
		t.Error("Float(absent column) expected error")
	}
}
