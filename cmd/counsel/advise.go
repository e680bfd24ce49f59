package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"counsel/internal/cache"
	"counsel/internal/output"
	"counsel/internal/progress"
	"counsel/pkg/analyzer/advice"
	"counsel/pkg/config"
)

var adviseCmd = &cobra.Command{
	Use:   "advise [path...]",
	Short: "Run every rule family and merge the findings",
	Long: `Advise runs the duplication, complexity, and naming rule families
concurrently and merges their findings into one report ordered by severity,
with a composite readability score from 0 (worst) to 100 (best).`,
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().String("fail-on", "", "Exit non-zero when findings at or above this severity exist (info, warning, error)")
	adviseCmd.Flags().Bool("no-cache", false, "Bypass the result cache")

	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, args []string) error {
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

	noCache, _ := cmd.Flags().GetBool("no-cache")

	report, err := adviseWithCache(cmd, cfg, files, noCache)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	reportSkipped(formatter, report.Skipped)

	if err := formatter.Output(renderReport(report)); err != nil {
		return err
	}

	if failOn, _ := cmd.Flags().GetString("fail-on"); failOn != "" {
		severity := advice.ParseSeverity(failOn)
		if count := report.CountAtOrAbove(severity); count > 0 {
			return fmt.Errorf("%d findings at or above severity %s", count, severity)
		}
	}

	return nil
}

// adviseWithCache runs the advisor, reusing a cached report when the file
// set and configuration are unchanged.
func adviseWithCache(cmd *cobra.Command, cfg *config.Config, files []string, noCache bool) (*advice.Report, error) {
	var store *cache.Cache
	var inputHash string

	if cfg.Cache.Enabled && !noCache {
		var err error
		store, err = cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
		if err == nil {
			inputHash, err = hashInputs(cfg, files)
		}
		if err != nil {
			store = nil // cache trouble never blocks analysis
		}
	}

	if store != nil {
		if data, ok := store.Get("advise", inputHash); ok {
			var cached advice.Report
			if err := json.Unmarshal(data, &cached); err == nil {
				if verbose {
					color.Cyan("Using cached report")
				}
				return &cached, nil
			}
		}
	}

	familyCount := 0
	for _, enabled := range []bool{cfg.Rules.Duplicates, cfg.Rules.Complexity, cfg.Rules.Naming} {
		if enabled {
			familyCount++
		}
	}
	tracker := progress.NewTracker("Advising...", len(files)*familyCount, quiet)

	advisor := advice.New(cfg, advice.WithProgress(tracker.Tick))
	report, err := advisor.Run(cmd.Context(), files)
	tracker.FinishSuccess()
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	if store != nil {
		if data, err := json.Marshal(report); err == nil {
			_ = store.Set("advise", inputHash, data)
		}
	}

	return report, nil
}

// hashInputs fingerprints the file contents together with the effective
// configuration, so config edits invalidate cached reports.
func hashInputs(cfg *config.Config, files []string) (string, error) {
	fileHash, err := cache.HashFileSet(files)
	if err != nil {
		return "", err
	}
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return cache.HashBytes(append([]byte(fileHash), cfgBytes...)), nil
}

// renderReport builds the compound renderable for text and markdown
// output. JSON output serializes the report itself.
func renderReport(report *advice.Report) *output.Report {
	scoreRows := [][]string{
		{"Overall", fmt.Sprintf("%.1f", report.Score.Total)},
		{"Duplication", fmt.Sprintf("%.1f", report.Score.Duplication)},
		{"Complexity", fmt.Sprintf("%.1f", report.Score.Complexity)},
		{"Naming", fmt.Sprintf("%.1f", report.Score.Naming)},
	}
	scoreTable := output.NewTable("Readability Score", []string{"Family", "Score"}, scoreRows, nil, report.Score)

	var findingRows [][]string
	for _, f := range report.Findings {
		findingRows = append(findingRows, []string{
			output.SeverityColor(string(f.Severity), string(f.Severity)),
			fmt.Sprintf("%s:%d", f.File, f.Line),
			f.Rule,
			truncate(f.Subject, 30),
			truncate(f.Message, 70),
		})
	}
	findingsTable := output.NewTable(
		"Findings",
		[]string{"Severity", "Location", "Rule", "Subject", "Message"},
		findingRows,
		[]string{
			fmt.Sprintf("Total: %d", len(report.Findings)),
			fmt.Sprintf("Errors: %d", report.CountAtOrAbove(advice.SeverityError)),
			fmt.Sprintf("Files: %d", report.FilesScanned),
		},
		report.Findings,
	)

	return &output.Report{
		Title:    "Advisory Report",
		Sections: []output.Renderable{scoreTable, findingsTable},
		Data:     report,
	}
}
