// Package leaderboard reshapes a directory of score CSVs plus the submission
// metadata into a single leaderboard record, and archives records in a local
// sqlite database.
package leaderboard

import (
	"math"

	"zrcbench/internal/meta"
)

// Entry is one leaderboard record, serialized as a single JSON object.
type Entry struct {
	AuthorLabel  string   `json:"author_label"`
	Set          []string `json:"set"`
	Description  string   `json:"description"`
	SubmissionID string   `json:"submission_id,omitempty"`
	SubmittedAt  string   `json:"submitted_at,omitempty"`
	User         string   `json:"user,omitempty"`
	Scores       Scores   `json:"scores"`
	More         More     `json:"more"`
}

// ScorePair carries the dev and test values of one general score. A value
// undefined on one side (absent or NaN) is null.
type ScorePair struct {
	Dev  *float64 `json:"dev"`
	Test *float64 `json:"test"`
}

// Scores is the general single-scalar-per-task view.
type Scores struct {
	LexicalAll                  ScorePair `json:"lexical_all"`
	LexicalInVocab              ScorePair `json:"lexical_invocab"`
	Syntactic                   ScorePair `json:"syntactic"`
	SemanticSynthetic           ScorePair `json:"semantic_synthetic"`
	SemanticLibrispeech         ScorePair `json:"semantic_librispeech"`
	WeightedSemanticSynthetic   ScorePair `json:"weighted_semantic_synthetic"`
	WeightedSemanticLibrispeech ScorePair `json:"weighted_semantic_librispeech"`
	PhoneticCleanWithin         ScorePair `json:"phonetic_clean_within"`
	PhoneticCleanAcross         ScorePair `json:"phonetic_clean_across"`
	PhoneticOtherWithin         ScorePair `json:"phonetic_other_within"`
	PhoneticOtherAcross         ScorePair `json:"phonetic_other_across"`
}

// More carries the submission metadata and the detailed breakdowns.
type More struct {
	Meta     meta.Meta `json:"meta"`
	Detailed Detailed  `json:"detailed"`
}

// Detailed holds the per-category views, dev and test outer-joined per
// category key.
type Detailed struct {
	LexicalByFrequency []DetailRow      `json:"lexical_by_frequency"`
	LexicalByLength    []DetailRow      `json:"lexical_by_length"`
	SyntacticByType    []DetailRow      `json:"syntactic_by_type"`
	Semantic           []SemanticDetail `json:"semantic"`
}

// DetailRow is one outer-joined category row carrying both sides' count,
// score and spread; every field of a side missing the category is null.
type DetailRow struct {
	Key     string   `json:"key"`
	NDev    *float64 `json:"n_dev"`
	Dev     *float64 `json:"score_dev"`
	StdDev  *float64 `json:"std_dev"`
	NTest   *float64 `json:"n_test"`
	Test    *float64 `json:"score_test"`
	StdTest *float64 `json:"std_test"`
}

// SemanticDetail is one per-set correlation row across the two subsets.
type SemanticDetail struct {
	Set         string   `json:"set"`
	Dataset     string   `json:"dataset"`
	Librispeech *float64 `json:"librispeech"`
	Synthetic   *float64 `json:"synthetic"`
}

// jsonFloat maps NaN to null so records always marshal.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
