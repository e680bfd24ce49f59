package advice

import (
	"counsel/pkg/analyzer/complexity"
	"counsel/pkg/analyzer/duplicates"
	"counsel/pkg/analyzer/naming"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// ParseSeverity converts a string to Severity, defaulting to info.
func ParseSeverity(s string) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Finding is the common currency of the report: one advisory from any
// rule family.
type Finding struct {
	Rule      string   `json:"rule"`
	Severity  Severity `json:"severity"`
	File      string   `json:"file"`
	Line      uint32   `json:"line"`
	Subject   string   `json:"subject,omitempty"` // function or identifier
	Message   string   `json:"message"`
	Value     float64  `json:"value,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
}

// Score is the composite readability score, 0 (worst) to 100 (best).
type Score struct {
	Total       float64 `json:"total"`
	Duplication float64 `json:"duplication"`
	Complexity  float64 `json:"complexity"`
	Naming      float64 `json:"naming"`
}

// Report merges all rule families for one run.
type Report struct {
	Findings     []Finding            `json:"findings"`
	Score        Score                `json:"score"`
	FilesScanned int                  `json:"files_scanned"`
	Duplication  *duplicates.Analysis `json:"duplication,omitempty"`
	Complexity   *complexity.Analysis `json:"complexity,omitempty"`
	Naming       *naming.Analysis     `json:"naming,omitempty"`
	Skipped      []string             `json:"skipped,omitempty"`
}

// CountAtOrAbove counts findings at or above a severity.
func (r *Report) CountAtOrAbove(s Severity) int {
	count := 0
	for _, f := range r.Findings {
		if f.Severity.Rank() >= s.Rank() {
			count++
		}
	}
	return count
}
