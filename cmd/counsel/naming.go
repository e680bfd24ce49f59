package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"counsel/internal/output"
	"counsel/internal/progress"
	"counsel/pkg/analyzer/naming"
)

var namingCmd = &cobra.Command{
	Use:   "naming [path...]",
	Short: "Flag identifiers with unhelpful names",
	RunE:  runNaming,
}

func init() {
	namingCmd.Flags().Int("min-length", 0, "Minimum identifier length (0 = from config)")

	rootCmd.AddCommand(namingCmd)
}

func runNaming(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if minLength, _ := cmd.Flags().GetInt("min-length"); minLength > 0 {
		cfg.Naming.MinLength = minLength
	}

	files, err := collectFiles(cfg, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Checking names...", len(files), quiet)
	analyzer := naming.New(
		naming.WithConfig(cfg.Naming),
		naming.WithProgress(tracker.Tick),
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

	if analysis.Summary.FlaggedCount == 0 {
		formatter.Success("No naming issues in %d identifiers", analysis.Summary.TotalIdentifiers)
		return nil
	}

	var rows [][]string
	for _, file := range analysis.Files {
		for _, issue := range file.Issues {
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", file.Path, issue.Line),
				issue.Rule,
				truncate(issue.Name, 30),
				issue.Kind,
				truncate(issue.Message, 60),
			})
		}
	}

	table := output.NewTable(
		"Naming Issues",
		[]string{"Location", "Rule", "Name", "Kind", "Message"},
		rows,
		[]string{
			fmt.Sprintf("Identifiers: %d", analysis.Summary.TotalIdentifiers),
			fmt.Sprintf("Flagged: %d", analysis.Summary.FlaggedCount),
			fmt.Sprintf("Avg Length: %.1f", analysis.Summary.MeanNameLength),
		},
		analysis,
	)
	return formatter.Output(table)
}
