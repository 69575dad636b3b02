package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"zrcbench/internal/display"
	"zrcbench/internal/lexical"
	"zrcbench/internal/logging"
	"zrcbench/internal/meta"
	"zrcbench/internal/phonetic"
	"zrcbench/internal/scores"
	"zrcbench/internal/semantic"
	"zrcbench/internal/stats"
	"zrcbench/internal/syntactic"
)

var evaluateFlags struct {
	dataset     string
	submission  string
	output      string
	jobs        int
	withTest    bool
	noLexical   bool
	noSyntactic bool
	noSemantic  bool
	noPhonetic  bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a submission against the benchmark datasets",
	Long: `Evaluate scores a submission directory on the lexical, syntactic,
semantic and phonetic tasks, writing one score CSV set per task. The
submission's meta.yaml supplies the distance metric, pooling method and
frame shift of the distance-based tasks.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.dataset, "dataset", "", "Benchmark dataset directory (required)")
	f.StringVar(&evaluateFlags.submission, "submission", "", "Submission directory (required)")
	f.StringVarP(&evaluateFlags.output, "output", "o", "", "Score output directory (default <submission>/scores)")
	f.IntVarP(&evaluateFlags.jobs, "jobs", "j", 1, "Parallel workers for feature-heavy tasks")
	f.BoolVar(&evaluateFlags.withTest, "test", false, "Evaluate the test sets in addition to dev")
	f.BoolVar(&evaluateFlags.noLexical, "no-lexical", false, "Skip the lexical task")
	f.BoolVar(&evaluateFlags.noSyntactic, "no-syntactic", false, "Skip the syntactic task")
	f.BoolVar(&evaluateFlags.noSemantic, "no-semantic", false, "Skip the semantic task")
	f.BoolVar(&evaluateFlags.noPhonetic, "no-phonetic", false, "Skip the phonetic task")
	_ = evaluateCmd.MarkFlagRequired("dataset")
	_ = evaluateCmd.MarkFlagRequired("submission")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	logger := logging.New("evaluate")

	m, err := meta.Load(filepath.Join(evaluateFlags.submission, "meta.yaml"))
	if err != nil {
		return err
	}

	output := evaluateFlags.output
	if output == "" {
		output = filepath.Join(evaluateFlags.submission, "scores")
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	kinds := []string{"dev"}
	if evaluateFlags.withTest {
		kinds = append(kinds, "test")
	}
	logger.Info("starting evaluation",
		"submission", evaluateFlags.submission, "sets", kinds, "jobs", evaluateFlags.jobs)

	summary := display.NewTable(display.ASCII)
	summary.Header("task", "set", "score")
	summary.RightAlign(3)

	if !evaluateFlags.noLexical {
		for _, kind := range kinds {
			result, err := lexical.Evaluate(
				filepath.Join(evaluateFlags.dataset, "lexical", kind, "gold.csv"),
				filepath.Join(evaluateFlags.submission, "lexical", kind+".txt"),
			)
			if err != nil {
				return fmt.Errorf("lexical %s: %w", kind, err)
			}
			if err := scores.WriteLexical(output, kind, result); err != nil {
				return err
			}
			summary.Row("lexical", kind, display.Score(meanPairScore(result)))
			logger.Info("lexical scored", "set", kind, "pairs", len(result.ByPair))
		}
	}

	if !evaluateFlags.noSyntactic {
		for _, kind := range kinds {
			result, err := syntactic.Evaluate(
				filepath.Join(evaluateFlags.dataset, "syntactic", kind, "gold.csv"),
				filepath.Join(evaluateFlags.submission, "syntactic", kind+".txt"),
			)
			if err != nil {
				return fmt.Errorf("syntactic %s: %w", kind, err)
			}
			if err := scores.WriteSyntactic(output, kind, result); err != nil {
				return err
			}
			var vals []float64
			for _, p := range result.ByPair {
				vals = append(vals, p.Score)
			}
			summary.Row("syntactic", kind, display.Score(stats.Mean(vals)))
			logger.Info("syntactic scored", "set", kind, "pairs", len(result.ByPair))
		}
	}

	if !evaluateFlags.noSemantic {
		cfg := semantic.Config{
			Metric:  m.SemanticMetric(),
			Pooling: m.SemanticPooling(),
			Jobs:    evaluateFlags.jobs,
		}
		for _, kind := range kinds {
			result, err := semantic.Evaluate(cmd.Context(),
				filepath.Join(evaluateFlags.dataset, "semantic", kind, "gold.csv"),
				filepath.Join(evaluateFlags.dataset, "semantic", kind, "pairs.csv"),
				filepath.Join(evaluateFlags.submission, "semantic", kind),
				cfg,
			)
			if err != nil {
				return fmt.Errorf("semantic %s: %w", kind, err)
			}
			if err := scores.WriteSemantic(output, kind, result); err != nil {
				return err
			}
			for _, c := range result.Correlations {
				summary.Row("semantic "+c.Type+"/"+c.Dataset, kind, display.Score(c.Correlation))
			}
			logger.Info("semantic scored", "set", kind, "pairs", len(result.Pairs))
		}
	}

	if !evaluateFlags.noPhonetic {
		cfg := phonetic.Config{
			Metric:     m.PhoneticMetric(),
			Pooling:    m.PhoneticPooling(),
			FrameShift: m.Parameters.Phonetic.FrameShift,
			Jobs:       evaluateFlags.jobs,
		}
		var rows []phonetic.Score
		for _, kind := range kinds {
			kindRows, err := phonetic.Evaluate(cmd.Context(),
				evaluateFlags.dataset, evaluateFlags.submission, kind, cfg)
			if err != nil {
				return fmt.Errorf("phonetic %s: %w", kind, err)
			}
			rows = append(rows, kindRows...)
		}
		if err := scores.WritePhonetic(output, rows); err != nil {
			return err
		}
		for _, r := range rows {
			summary.Row("phonetic "+r.SubDataset+" "+r.Kind, r.Dataset, display.Score(r.Score))
		}
	}

	logger.Info("evaluation complete", "output", output)
	fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	return nil
}

func meanPairScore(r *lexical.Result) float64 {
	vals := make([]float64, len(r.ByPair))
	for i, p := range r.ByPair {
		vals[i] = p.Score
	}
	return stats.Mean(vals)
}
