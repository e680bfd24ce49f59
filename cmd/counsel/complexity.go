package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"counsel/internal/output"
	"counsel/internal/progress"
	"counsel/pkg/analyzer/complexity"
)

var complexityCmd = &cobra.Command{
	Use:     "complexity [path...]",
	Aliases: []string{"cx"},
	Short:   "Score functions by complexity",
	RunE:    runComplexity,
}

func init() {
	complexityCmd.Flags().Int("top", 20, "Show the N most complex functions")
	complexityCmd.Flags().Bool("violations-only", false, "Only list functions over a threshold")

	rootCmd.AddCommand(complexityCmd)
}

func runComplexity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := collectFiles(cfg, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Scoring complexity...", len(files), quiet)
	analyzer := complexity.New(
		complexity.WithConfig(cfg.Complexity),
		complexity.WithProgress(tracker.Tick),
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

	if analysis.Summary.TotalFunctions == 0 {
		formatter.Success("No functions found in %d files", analysis.Summary.TotalFiles)
		return nil
	}

	top, _ := cmd.Flags().GetInt("top")
	violationsOnly, _ := cmd.Flags().GetBool("violations-only")

	type ranked struct {
		file string
		fn   complexity.FunctionResult
	}
	var functions []ranked
	for _, file := range analysis.Files {
		for _, fn := range file.Functions {
			if violationsOnly && len(fn.Violations) == 0 {
				continue
			}
			functions = append(functions, ranked{file: file.Path, fn: fn})
		}
	}
	sort.Slice(functions, func(i, j int) bool {
		if functions[i].fn.Metrics.Cognitive != functions[j].fn.Metrics.Cognitive {
			return functions[i].fn.Metrics.Cognitive > functions[j].fn.Metrics.Cognitive
		}
		return functions[i].fn.Metrics.Cyclomatic > functions[j].fn.Metrics.Cyclomatic
	})
	if top > 0 && len(functions) > top {
		functions = functions[:top]
	}

	var rows [][]string
	for _, r := range functions {
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d", r.file, r.fn.StartLine),
			truncate(r.fn.Name, 40),
			fmt.Sprintf("%d", r.fn.Metrics.Cyclomatic),
			fmt.Sprintf("%d", r.fn.Metrics.Cognitive),
			fmt.Sprintf("%d", r.fn.Metrics.MaxNesting),
			fmt.Sprintf("%d", r.fn.Metrics.Statements),
			fmt.Sprintf("%d", len(r.fn.Violations)),
		})
	}

	table := output.NewTable(
		"Function Complexity",
		[]string{"Location", "Function", "Cyclomatic", "Cognitive", "Nesting", "Statements", "Violations"},
		rows,
		[]string{
			fmt.Sprintf("Functions: %d", analysis.Summary.TotalFunctions),
			fmt.Sprintf("Avg Cyclomatic: %.1f", analysis.Summary.AvgCyclomatic),
			fmt.Sprintf("P90 Cognitive: %d", analysis.Summary.P90Cognitive),
			fmt.Sprintf("Violations: %d", analysis.Summary.ViolationCount),
		},
		analysis,
	)
	return formatter.Output(table)
}
