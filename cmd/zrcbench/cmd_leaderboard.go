package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"zrcbench/internal/display"
	"zrcbench/internal/leaderboard"
	"zrcbench/internal/logging"
	"zrcbench/internal/meta"
)

const defaultArchive = ".zrcbench/leaderboard.db"

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Build and archive leaderboard records from score files",
}

var lbBuildFlags struct {
	scores       string
	dataset      string
	metaFile     string
	platformMeta string
	output       string
	archive      string
}

var lbBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Aggregate a score directory into one leaderboard JSON record",
	RunE:  runLeaderboardBuild,
}

var lbListFlags struct {
	archive  string
	markdown bool
}

var lbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived leaderboard records",
	RunE:  runLeaderboardList,
}

func init() {
	bf := lbBuildCmd.Flags()
	bf.StringVar(&lbBuildFlags.scores, "scores", "", "Score directory produced by evaluate (required)")
	bf.StringVar(&lbBuildFlags.dataset, "dataset", "", "Benchmark dataset directory, for semantic pair sizes (required)")
	bf.StringVar(&lbBuildFlags.metaFile, "meta", "", "Submission meta.yaml (default <scores>/../meta.yaml)")
	bf.StringVar(&lbBuildFlags.platformMeta, "platform-meta", "", "Optional platform metadata JSON sidecar")
	bf.StringVarP(&lbBuildFlags.output, "output", "o", "", "Write the record to this file instead of stdout")
	bf.StringVar(&lbBuildFlags.archive, "archive", "", "Also append the record to this sqlite archive")
	_ = lbBuildCmd.MarkFlagRequired("scores")
	_ = lbBuildCmd.MarkFlagRequired("dataset")

	lf := lbListCmd.Flags()
	lf.StringVar(&lbListFlags.archive, "archive", defaultArchive, "Sqlite archive path")
	lf.BoolVar(&lbListFlags.markdown, "markdown", false, "Render the listing as Markdown")

	leaderboardCmd.AddCommand(lbBuildCmd)
	leaderboardCmd.AddCommand(lbListCmd)
}

func runLeaderboardBuild(cmd *cobra.Command, _ []string) error {
	logger := logging.New("leaderboard")

	metaFile := lbBuildFlags.metaFile
	if metaFile == "" {
		metaFile = filepath.Join(lbBuildFlags.scores, "..", "meta.yaml")
	}
	m, err := meta.Load(metaFile)
	if err != nil {
		return err
	}

	sizes, err := leaderboard.LoadSemanticSizes(lbBuildFlags.dataset)
	if err != nil {
		return err
	}

	var platform *leaderboard.PlatformMeta
	if lbBuildFlags.platformMeta != "" {
		platform, err = leaderboard.LoadPlatformMeta(lbBuildFlags.platformMeta)
		if err != nil {
			return err
		}
	}

	entry, err := leaderboard.Build(lbBuildFlags.scores, m, sizes, platform)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if lbBuildFlags.output != "" {
		if err := os.WriteFile(lbBuildFlags.output, append(raw, '\n'), 0o644); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		logger.Info("record written", "path", lbBuildFlags.output)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	}

	if lbBuildFlags.archive != "" {
		store, err := leaderboard.OpenStore(lbBuildFlags.archive)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(entry)
		if err != nil {
			return err
		}
		logger.Info("record archived", "archive", lbBuildFlags.archive, "id", id)
	}
	return nil
}

func runLeaderboardList(cmd *cobra.Command, _ []string) error {
	store, err := leaderboard.OpenStore(lbListFlags.archive)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}

	mode := display.ASCII
	if lbListFlags.markdown {
		mode = display.Markdown
	}
	tab := display.NewTable(mode)
	tab.Header("id", "author", "description", "archived at")
	for _, e := range entries {
		tab.Row(e.ID, e.AuthorLabel, e.Description, e.ArchivedAt)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tab.String())
	return nil
}
