package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"counsel/pkg/analyzer/advice"
	"counsel/pkg/config"
	"counsel/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-run analysis when files change",
	Long: `Watch monitors a directory tree and re-runs the advisory analysis on
each file after it stops changing. Useful while refactoring: save a file
and see its findings immediately.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before re-analysis")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	watcher, err := watch.New(root, cfg, debounce)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(path string) {
		analyzeChanged(cmd.Context(), cfg, path)
	})

	if err := watcher.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// analyzeChanged runs the full advisory pass on a single changed file and
// prints its findings. Watch output is always text.
func analyzeChanged(ctx context.Context, cfg *config.Config, path string) {
	start := time.Now()

	advisor := advice.New(cfg)
	report, err := advisor.Run(ctx, []string{path})
	if err != nil {
		color.Red("Analysis failed: %v", err)
		return
	}

	if len(report.Findings) == 0 {
		color.Green("No findings (%.0fms)", float64(time.Since(start).Milliseconds()))
		return
	}

	for _, f := range report.Findings {
		fmt.Printf("  %s %s:%d %s %s\n",
			severityBadge(f.Severity), f.File, f.Line, f.Rule, f.Message)
	}
	color.Cyan("Score: %.1f (%d findings, %.0fms)",
		report.Score.Total, len(report.Findings), float64(time.Since(start).Milliseconds()))
}

func severityBadge(s advice.Severity) string {
	switch s {
	case advice.SeverityError:
		return color.RedString("[error]")
	case advice.SeverityWarning:
		return color.YellowString("[warn] ")
	default:
		return color.CyanString("[info] ")
	}
}
