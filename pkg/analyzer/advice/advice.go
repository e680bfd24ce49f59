// Package advice runs every rule family and merges their findings into a
// single ordered report with a composite readability score.
package advice

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc"

	"counsel/internal/fileproc"
	"counsel/pkg/analyzer/complexity"
	"counsel/pkg/analyzer/duplicates"
	"counsel/pkg/analyzer/naming"
	"counsel/pkg/config"
)

// Advisor coordinates the rule families.
type Advisor struct {
	cfg        *config.Config
	onProgress fileproc.ProgressFunc
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithProgress sets a callback invoked as each family finishes a file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Advisor) {
		a.onProgress = fn
	}
}

// New creates an advisor from the loaded configuration.
func New(cfg *config.Config, opts ...Option) *Advisor {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &Advisor{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the enabled rule families concurrently and merges their
// results. Per-file failures are collected in Report.Skipped.
func (a *Advisor) Run(ctx context.Context, files []string) (*Report, error) {
	report := &Report{FilesScanned: len(files)}

	var wg conc.WaitGroup

	if a.cfg.Rules.Duplicates {
		wg.Go(func() {
			d := duplicates.New(duplicates.WithConfig(a.cfg.Duplicates), duplicates.WithProgress(a.onProgress))
			defer d.Close()
			report.Duplication, _ = d.Analyze(ctx, files)
		})
	}
	if a.cfg.Rules.Complexity {
		wg.Go(func() {
			c := complexity.New(complexity.WithConfig(a.cfg.Complexity), complexity.WithProgress(a.onProgress))
			defer c.Close()
			report.Complexity, _ = c.Analyze(ctx, files)
		})
	}
	if a.cfg.Rules.Naming {
		wg.Go(func() {
			n := naming.New(naming.WithConfig(a.cfg.Naming), naming.WithProgress(a.onProgress))
			defer n.Close()
			report.Naming, _ = n.Analyze(ctx, files)
		})
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.collectFindings(report)
	report.Score = a.score(report)

	return report, nil
}

// collectFindings converts each family's results into the common Finding
// form and orders them deterministically.
func (a *Advisor) collectFindings(report *Report) {
	if report.Duplication != nil {
		for _, group := range report.Duplication.Groups {
			first := group.Instances[0]
			report.Findings = append(report.Findings, Finding{
				Rule:     "duplicates/" + string(group.Type),
				Severity: duplicationSeverity(group),
				File:     first.File,
				Line:     first.StartLine,
				Subject:  first.Function,
				Message: fmt.Sprintf("%d near-identical fragments (%.0f%% similar, %d lines total)",
					len(group.Instances), group.AverageSimilarity*100, group.TotalLines),
				Value:     group.AverageSimilarity,
				Threshold: report.Duplication.Threshold,
			})
		}
		report.Skipped = append(report.Skipped, report.Duplication.Skipped...)
	}

	if report.Complexity != nil {
		for _, file := range report.Complexity.Files {
			for _, fn := range file.Functions {
				for _, v := range fn.Violations {
					report.Findings = append(report.Findings, Finding{
						Rule:      v.Rule,
						Severity:  complexitySeverity(v),
						File:      file.Path,
						Line:      fn.StartLine,
						Subject:   fn.Name,
						Message:   v.Message,
						Value:     float64(v.Value),
						Threshold: float64(v.Threshold),
					})
				}
			}
		}
		report.Skipped = append(report.Skipped, report.Complexity.Skipped...)
	}

	if report.Naming != nil {
		for _, file := range report.Naming.Files {
			for _, issue := range file.Issues {
				report.Findings = append(report.Findings, Finding{
					Rule:     issue.Rule,
					Severity: SeverityInfo,
					File:     file.Path,
					Line:     issue.Line,
					Subject:  issue.Name,
					Message:  issue.Message,
				})
			}
		}
		report.Skipped = append(report.Skipped, report.Naming.Skipped...)
	}

	report.Skipped = dedupeSkipped(report.Skipped)

	sort.Slice(report.Findings, func(i, j int) bool {
		fi, fj := report.Findings[i], report.Findings[j]
		if fi.Severity.Rank() != fj.Severity.Rank() {
			return fi.Severity.Rank() > fj.Severity.Rank()
		}
		if fi.File != fj.File {
			return fi.File < fj.File
		}
		if fi.Line != fj.Line {
			return fi.Line < fj.Line
		}
		return fi.Rule < fj.Rule
	})
}

// dedupeSkipped keeps one record per file: every family skips the same
// unreadable file, and the report should count it once. Records are
// "path: error" strings from fileproc.
func dedupeSkipped(records []string) []string {
	if len(records) < 2 {
		return records
	}
	seen := make(map[string]bool, len(records))
	deduped := records[:0]
	for _, record := range records {
		path := record
		if i := strings.Index(record, ": "); i > 0 {
			path = record[:i]
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		deduped = append(deduped, record)
	}
	return deduped
}

// duplicationSeverity grades a clone group: exact copies and large groups
// hurt more than loose structural similarity.
func duplicationSeverity(group duplicates.Group) Severity {
	if group.Type == duplicates.TypeExact || len(group.Instances) > 2 {
		return SeverityError
	}
	if group.Type == duplicates.TypeParametric {
		return SeverityWarning
	}
	return SeverityInfo
}

// complexitySeverity grades a violation: double the threshold is an error.
func complexitySeverity(v complexity.Violation) Severity {
	if v.Threshold > 0 && v.Value > v.Threshold*2 {
		return SeverityError
	}
	return SeverityWarning
}

// score computes the weighted composite readability score.
func (a *Advisor) score(report *Report) Score {
	score := Score{Duplication: 100, Complexity: 100, Naming: 100}

	if report.Duplication != nil {
		score.Duplication = 100 * (1 - report.Duplication.Summary.DuplicationRatio)
	}
	if report.Complexity != nil && report.Complexity.Summary.TotalFunctions > 0 {
		violationRate := float64(report.Complexity.Summary.ViolationCount) /
			float64(report.Complexity.Summary.TotalFunctions)
		score.Complexity = 100 * (1 - clamp01(violationRate))
	}
	if report.Naming != nil && report.Naming.Summary.TotalIdentifiers > 0 {
		flagRate := float64(report.Naming.Summary.FlaggedCount) /
			float64(report.Naming.Summary.TotalIdentifiers)
		score.Naming = 100 * (1 - clamp01(flagRate))
	}

	weights := a.cfg.Score
	totalWeight := weights.Duplication + weights.Complexity + weights.Naming
	if totalWeight <= 0 {
		weights = config.Default().Score
		totalWeight = weights.Duplication + weights.Complexity + weights.Naming
	}

	score.Total = (score.Duplication*weights.Duplication +
		score.Complexity*weights.Complexity +
		score.Naming*weights.Naming) / totalWeight

	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
