package complexity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"counsel/pkg/parser"
)

const simpleGo = `package sample

func Add(a, b int) int {
	return a + b
}
`

const branchyGo = `package sample

func Classify(n int) string {
	if n > 10 && n < 100 {
		return "mid"
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			n++
		}
	}
	return "other"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAnalyzeFile_Simple(t *testing.T) {
	a := New()
	defer a.Close()

	path := writeFile(t, t.TempDir(), "simple.go", simpleGo)
	result, err := a.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	if len(result.Functions) != 1 {
		t.Fatalf("functions = %d, want 1", len(result.Functions))
	}

	fn := result.Functions[0]
	if fn.Name != "Add" {
		t.Errorf("name = %q, want Add", fn.Name)
	}
	if fn.Metrics.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1", fn.Metrics.Cyclomatic)
	}
	if fn.Metrics.Cognitive != 0 {
		t.Errorf("cognitive = %d, want 0", fn.Metrics.Cognitive)
	}
	if fn.Metrics.MaxNesting != 0 {
		t.Errorf("nesting = %d, want 0", fn.Metrics.MaxNesting)
	}
	if len(fn.Violations) != 0 {
		t.Errorf("violations = %v, want none", fn.Violations)
	}
}

func TestAnalyzeFile_Branchy(t *testing.T) {
	a := New()
	defer a.Close()

	path := writeFile(t, t.TempDir(), "branchy.go", branchyGo)
	result, err := a.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	fn := result.Functions[0]
	// two ifs, one for, one && operator
	if fn.Metrics.Cyclomatic != 5 {
		t.Errorf("cyclomatic = %d, want 5", fn.Metrics.Cyclomatic)
	}
	if fn.Metrics.MaxNesting != 2 {
		t.Errorf("nesting = %d, want 2", fn.Metrics.MaxNesting)
	}
	if fn.Metrics.Cognitive != 4 {
		t.Errorf("cognitive = %d, want 4", fn.Metrics.Cognitive)
	}
	if fn.Metrics.Statements == 0 {
		t.Error("expected a non-zero statement count")
	}
}

func TestThresholdViolations(t *testing.T) {
	a := New(WithThresholds(Thresholds{
		MaxCyclomatic: 2,
		MaxCognitive:  2,
		MaxNesting:    1,
		MaxStatements: 3,
	}))
	defer a.Close()

	path := writeFile(t, t.TempDir(), "branchy.go", branchyGo)
	result, err := a.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	rules := make(map[string]bool)
	for _, v := range result.Functions[0].Violations {
		rules[v.Rule] = true
	}

	for _, want := range []string{RuleCyclomatic, RuleCognitive, RuleNesting, RuleStatements, RuleMixedAbstraction} {
		if !rules[want] {
			t.Errorf("missing violation %s (got %v)", want, rules)
		}
	}
}

func TestScoreFunction_NilBody(t *testing.T) {
	fn := parser.FunctionNode{Name: "decl", StartLine: 1, EndLine: 1}
	result := scoreFunction(fn, &parser.ParseResult{Language: parser.LangGo}, DefaultThresholds())

	if result.Metrics.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1", result.Metrics.Cyclomatic)
	}
	if result.Metrics.Cognitive != 0 {
		t.Errorf("cognitive = %d, want 0", result.Metrics.Cognitive)
	}
}

func TestAnalyze_SkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.go", simpleGo)
	missing := filepath.Join(dir, "missing.go")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Summary.TotalFiles != 1 {
		t.Errorf("total files = %d, want 1", analysis.Summary.TotalFiles)
	}
	if len(analysis.Skipped) != 1 {
		t.Errorf("skipped = %v, want one entry", analysis.Skipped)
	}
}

func TestAnalyze_Summary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", simpleGo)
	writeFile(t, dir, "b.go", branchyGo)

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.go"),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Summary.TotalFunctions != 2 {
		t.Errorf("total functions = %d, want 2", analysis.Summary.TotalFunctions)
	}
	if analysis.Summary.MaxCyclomatic != 5 {
		t.Errorf("max cyclomatic = %d, want 5", analysis.Summary.MaxCyclomatic)
	}
	if analysis.Summary.MaxNesting != 2 {
		t.Errorf("max nesting = %d, want 2", analysis.Summary.MaxNesting)
	}
	// files are sorted by path for deterministic output
	if analysis.Files[0].Path > analysis.Files[1].Path {
		t.Error("files should be ordered by path")
	}
}
