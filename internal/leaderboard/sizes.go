package leaderboard

import (
	"path/filepath"

	"zrcbench/internal/gold"
)

// LoadSemanticSizes counts the pairs per (kind, type, dataset) group from
// the dataset's semantic pairs files, at
// <datasetDir>/semantic/{dev,test}/pairs.csv. The counts weight the
// size-weighted semantic general score.
func LoadSemanticSizes(datasetDir string) (SemanticSizes, error) {
	sizes := make(SemanticSizes)
	for _, kind := range kinds {
		pairs, err := gold.LoadPairs(filepath.Join(datasetDir, "semantic", kind, "pairs.csv"))
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			sizes[SizeKey{kind, p.Type, p.Dataset}]++
		}
	}
	return sizes, nil
}
