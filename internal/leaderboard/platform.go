package leaderboard

import (
	"encoding/json"
	"fmt"
	"os"
)

// PlatformMeta is the optional sidecar record written by the submission
// platform next to a downloaded submission.
type PlatformMeta struct {
	SubmissionID string `json:"submission_id"`
	SubmittedAt  string `json:"submitted_at"`
	User         string `json:"user"`
}

// LoadPlatformMeta parses a platform metadata JSON file.
func LoadPlatformMeta(path string) (*PlatformMeta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read platform metadata: %w", err)
	}
	var pm PlatformMeta
	if err := json.Unmarshal(raw, &pm); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pm, nil
}
