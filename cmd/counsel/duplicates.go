package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"counsel/internal/output"
	"counsel/internal/progress"
	"counsel/pkg/analyzer/duplicates"
)

var duplicatesCmd = &cobra.Command{
	Use:     "duplicates [path...]",
	Aliases: []string{"dup", "clones"},
	Short:   "Detect near-duplicate code fragments",
	RunE:    runDuplicates,
}

func init() {
	duplicatesCmd.Flags().Int("min-tokens", 0, "Minimum fragment size in tokens (0 = from config)")
	duplicatesCmd.Flags().Float64("threshold", 0, "Similarity threshold 0.0-1.0 (0 = from config)")

	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if minTokens, _ := cmd.Flags().GetInt("min-tokens"); minTokens > 0 {
		cfg.Duplicates.MinTokens = minTokens
	}
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		cfg.Duplicates.SimilarityThreshold = threshold
	}

	files, err := collectFiles(cfg, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Detecting duplicates...", len(files), quiet)
	analyzer := duplicates.New(
		duplicates.WithConfig(cfg.Duplicates),
		duplicates.WithProgress(tracker.Tick),
	)
	defer analyzer.Close()

	analysis, err := analyzer.Analyze(cmd.Context(), files)
	tracker.FinishSuccess()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	reportSkipped(formatter, analysis.Skipped)

	if len(analysis.Groups) == 0 {
		formatter.Success("No duplicated fragments found in %d files", analysis.FilesScanned)
		return nil
	}

	var rows [][]string
	for _, group := range analysis.Groups {
		for _, inst := range group.Instances {
			subject := inst.Function
			if subject == "" {
				subject = "(file)"
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", group.ID),
				string(group.Type),
				fmt.Sprintf("%s:%d-%d", inst.File, inst.StartLine, inst.EndLine),
				truncate(subject, 40),
				fmt.Sprintf("%.0f%%", group.AverageSimilarity*100),
				fmt.Sprintf("%d", inst.Lines),
			})
		}
	}

	table := output.NewTable(
		"Duplicated Fragments",
		[]string{"Group", "Type", "Location", "Function", "Similarity", "Lines"},
		rows,
		[]string{
			fmt.Sprintf("Groups: %d", analysis.Summary.TotalGroups),
			fmt.Sprintf("Exact: %d", analysis.Summary.ExactCount),
			fmt.Sprintf("Parametric: %d", analysis.Summary.ParametricCount),
			fmt.Sprintf("Structural: %d", analysis.Summary.StructuralCount),
			fmt.Sprintf("Duplication: %.1f%%", analysis.Summary.DuplicationRatio*100),
		},
		analysis,
	)
	return formatter.Output(table)
}
