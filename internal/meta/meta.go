// Package meta loads and validates the submission metadata file
// (meta.yaml): authorship fields plus the evaluation parameters for the
// distance-based tasks.
package meta

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"zrcbench/internal/evalerr"
	"zrcbench/internal/features"
)

// Meta is the parsed meta.yaml. The json tags cover its re-serialization
// inside the leaderboard record.
type Meta struct {
	Author           string     `yaml:"author" json:"author"`
	Affiliation      string     `yaml:"affiliation" json:"affiliation"`
	Description      string     `yaml:"description" json:"description"`
	OpenSource       bool       `yaml:"open_source" json:"open_source"`
	TrainSet         string     `yaml:"train_set" json:"train_set"`
	GPUBudget        float64    `yaml:"gpu_budget" json:"gpu_budget"`
	VisuallyGrounded bool       `yaml:"visually_grounded" json:"visually_grounded"`
	Parameters       Parameters `yaml:"parameters" json:"parameters"`
}

// UnmarshalYAML also accepts the older key "budget" for the GPU budget,
// used by submissions predating the leaderboard revision of the schema.
func (m *Meta) UnmarshalYAML(value *yaml.Node) error {
	type plain Meta
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = Meta(p)
	if m.GPUBudget == 0 {
		var legacy struct {
			Budget float64 `yaml:"budget"`
		}
		if err := value.Decode(&legacy); err != nil {
			return err
		}
		m.GPUBudget = legacy.Budget
	}
	return nil
}

// Parameters holds the per-task evaluation parameters.
type Parameters struct {
	Phonetic TaskParams `yaml:"phonetic" json:"phonetic"`
	Semantic TaskParams `yaml:"semantic" json:"semantic"`
}

// TaskParams configures one distance-based task. Pooling is optional for
// the phonetic task and defaults to mean; FrameShift only applies to the
// phonetic task.
type TaskParams struct {
	Metric     string  `yaml:"metric" json:"metric"`
	Pooling    string  `yaml:"pooling" json:"pooling"`
	FrameShift float64 `yaml:"frame_shift" json:"frame_shift,omitempty"`
}

// Load reads and validates a meta.yaml. Validation failures are reported
// per field, collected into one error.
func Load(path string) (*Meta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var m Meta
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Parameters.Phonetic.Pooling == "" {
		m.Parameters.Phonetic.Pooling = string(features.PoolMean)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every field and reports all failures at once.
func (m *Meta) Validate() error {
	var errs []error
	requireString := func(field, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s: must be a non-empty string", field))
		}
	}
	requireString("author", m.Author)
	requireString("affiliation", m.Affiliation)
	requireString("description", m.Description)
	requireString("train_set", m.TrainSet)

	if m.GPUBudget <= 0 {
		errs = append(errs, fmt.Errorf("gpu_budget: must be a positive number of GPU hours"))
	}

	checkTask := func(task string, p TaskParams) {
		if _, err := features.ParseMetric(p.Metric); err != nil {
			errs = append(errs, fmt.Errorf("parameters.%s.metric: %w", task, err))
		}
		if _, err := features.ParsePooling(p.Pooling); err != nil {
			errs = append(errs, fmt.Errorf("parameters.%s.pooling: %w", task, err))
		}
	}
	checkTask("phonetic", m.Parameters.Phonetic)
	checkTask("semantic", m.Parameters.Semantic)

	if m.Parameters.Phonetic.FrameShift <= 0 {
		errs = append(errs, fmt.Errorf("parameters.phonetic.frame_shift: must be positive"))
	}

	return evalerr.Collect("meta.yaml validation", errs)
}

// PhoneticMetric returns the parsed phonetic metric. Only meaningful after
// a successful Validate.
func (m *Meta) PhoneticMetric() features.Metric {
	metric, _ := features.ParseMetric(m.Parameters.Phonetic.Metric)
	return metric
}

// PhoneticPooling returns the parsed phonetic pooling method.
func (m *Meta) PhoneticPooling() features.Pooling {
	pooling, _ := features.ParsePooling(m.Parameters.Phonetic.Pooling)
	return pooling
}

// SemanticMetric returns the parsed semantic metric.
func (m *Meta) SemanticMetric() features.Metric {
	metric, _ := features.ParseMetric(m.Parameters.Semantic.Metric)
	return metric
}

// SemanticPooling returns the parsed semantic pooling method.
func (m *Meta) SemanticPooling() features.Pooling {
	pooling, _ := features.ParsePooling(m.Parameters.Semantic.Pooling)
	return pooling
}
