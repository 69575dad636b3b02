package gold

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"zrcbench/internal/evalerr"
)

// Score is one line of a flat submission score file.
type Score struct {
	Key   string
	Value float64
}

// LoadScores parses a submission score file of "<key> <float>" lines.
// Malformed lines are FormatErrors carrying the 1-based line number;
// duplicated keys are a MismatchError listing the duplicates.
func LoadScores(path string) ([]Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open submission file: %w", err)
	}
	defer f.Close()

	var scores []Score
	seen := make(map[string]int)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		fields := strings.Split(strings.TrimSpace(line), " ")
		if len(fields) != 2 {
			return nil, &evalerr.FormatError{
				Line:    lineNo,
				Content: line,
				Reason:  `must be "<filename> <score>"`,
			}
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &evalerr.FormatError{
				Line:    lineNo,
				Content: line,
				Reason:  "<score> must be a float",
			}
		}

		seen[fields[0]]++
		scores = append(scores, Score{Key: fields[0], Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read submission file: %w", err)
	}

	var duplicates []string
	for key, n := range seen {
		if n > 1 {
			duplicates = append(duplicates, key)
		}
	}
	if len(duplicates) > 0 {
		return nil, &evalerr.MismatchError{Message: "duplicates found", Extra: duplicates}
	}

	return scores, nil
}

// AlignScores indexes scores by key and checks that the key set equals
// goldKeys exactly. On violation the MismatchError carries both the missing
// and the extra keys.
func AlignScores(goldKeys []string, scores []Score) (map[string]float64, error) {
	byKey := make(map[string]float64, len(scores))
	for _, s := range scores {
		byKey[s.Key] = s.Value
	}

	required := make(map[string]bool, len(goldKeys))
	var missing []string
	for _, key := range goldKeys {
		required[key] = true
		if _, ok := byKey[key]; !ok {
			missing = append(missing, key)
		}
	}
	var extra []string
	for key := range byKey {
		if !required[key] {
			extra = append(extra, key)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return nil, &evalerr.MismatchError{
			Message: "mismatch between gold and submission",
			Missing: missing,
			Extra:   extra,
		}
	}
	return byKey, nil
}
