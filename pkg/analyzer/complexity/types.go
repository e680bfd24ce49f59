package complexity

// Metrics holds the per-function measurements.
type Metrics struct {
	Cyclomatic uint32 `json:"cyclomatic"`
	Cognitive  uint32 `json:"cognitive"`
	MaxNesting int    `json:"max_nesting"`
	Statements int    `json:"statements"`
	Lines      int    `json:"lines"`
}

// Violation is a threshold breach for a single function.
type Violation struct {
	Rule      string `json:"rule"`
	Message   string `json:"message"`
	Value     int    `json:"value"`
	Threshold int    `json:"threshold"`
}

// FunctionResult is the scored result for one function.
type FunctionResult struct {
	Name       string      `json:"name"`
	StartLine  uint32      `json:"start_line"`
	EndLine    uint32      `json:"end_line"`
	Metrics    Metrics     `json:"metrics"`
	Violations []Violation `json:"violations,omitempty"`
}

// FileResult aggregates function results for one file.
type FileResult struct {
	Path            string           `json:"path"`
	Language        string           `json:"language"`
	Functions       []FunctionResult `json:"functions"`
	TotalCyclomatic uint32           `json:"total_cyclomatic"`
	TotalCognitive  uint32           `json:"total_cognitive"`
	AvgCyclomatic   float64          `json:"avg_cyclomatic"`
	AvgCognitive    float64          `json:"avg_cognitive"`
	ViolationCount  int              `json:"violation_count"`
}

// Analysis is the full complexity result for a run.
type Analysis struct {
	Files   []FileResult `json:"files"`
	Summary Summary      `json:"summary"`
	Skipped []string     `json:"skipped,omitempty"`
}

// Summary provides aggregate statistics across all functions.
type Summary struct {
	TotalFiles     int     `json:"total_files"`
	TotalFunctions int     `json:"total_functions"`
	AvgCyclomatic  float64 `json:"avg_cyclomatic"`
	AvgCognitive   float64 `json:"avg_cognitive"`
	MaxCyclomatic  uint32  `json:"max_cyclomatic"`
	MaxCognitive   uint32  `json:"max_cognitive"`
	MaxNesting     int     `json:"max_nesting"`
	P50Cyclomatic  uint32  `json:"p50_cyclomatic"`
	P90Cyclomatic  uint32  `json:"p90_cyclomatic"`
	P95Cyclomatic  uint32  `json:"p95_cyclomatic"`
	P50Cognitive   uint32  `json:"p50_cognitive"`
	P90Cognitive   uint32  `json:"p90_cognitive"`
	P95Cognitive   uint32  `json:"p95_cognitive"`
	ViolationCount int     `json:"violation_count"`
}

// Thresholds define when a function is flagged.
type Thresholds struct {
	MaxCyclomatic uint32 `json:"max_cyclomatic"`
	MaxCognitive  uint32 `json:"max_cognitive"`
	MaxNesting    int    `json:"max_nesting"`
	MaxStatements int    `json:"max_statements"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxCyclomatic: 10,
		MaxCognitive:  15,
		MaxNesting:    4,
		MaxStatements: 40,
	}
}

// Rule names used in violations.
const (
	RuleCyclomatic       = "complexity/cyclomatic"
	RuleCognitive        = "complexity/cognitive"
	RuleNesting          = "complexity/nesting"
	RuleStatements       = "complexity/statements"
	RuleMixedAbstraction = "complexity/mixed-abstraction"
)

// WithinLimits reports whether every metric is inside the thresholds.
func (m *Metrics) WithinLimits(t Thresholds) bool {
	return m.Cyclomatic <= t.MaxCyclomatic &&
		m.Cognitive <= t.MaxCognitive &&
		m.MaxNesting <= t.MaxNesting &&
		m.Statements <= t.MaxStatements
}
