// Package complexity scores functions by cyclomatic and cognitive
// complexity, nesting depth, and statement count.
package complexity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"counsel/internal/fileproc"
	"counsel/pkg/analyzer"
	"counsel/pkg/config"
	"counsel/pkg/parser"
	"counsel/pkg/stats"
)

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer computes per-function complexity metrics.
type Analyzer struct {
	parser     *parser.Parser
	thresholds Thresholds
	onProgress fileproc.ProgressFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThresholds overrides the default violation limits.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithConfig derives thresholds from the loaded configuration.
func WithConfig(cfg config.ComplexityConfig) Option {
	return func(a *Analyzer) {
		a.thresholds = Thresholds{
			MaxCyclomatic: cfg.MaxCyclomatic,
			MaxCognitive:  cfg.MaxCognitive,
			MaxNesting:    cfg.MaxNesting,
			MaxStatements: cfg.MaxStatements,
		}
	}
}

// WithProgress sets a callback invoked after each file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a complexity analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser:     parser.New(),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// AnalyzeFile scores a single file.
func (a *Analyzer) AnalyzeFile(path string) (*FileResult, error) {
	result, err := a.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return a.scoreParseResult(result), nil
}

// AnalyzeContent scores in-memory content.
func (a *Analyzer) AnalyzeContent(content []byte, path string) (*FileResult, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}
	result, err := a.parser.Parse(content, lang, path)
	if err != nil {
		return nil, err
	}
	return a.scoreParseResult(result), nil
}

// Analyze scores all files in parallel. Unparseable files are recorded in
// Analysis.Skipped and never abort the run.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	thresholds := a.thresholds
	results, errs := fileproc.MapFiles(ctx, files, func(psr *parser.Parser, path string) (FileResult, error) {
		result, err := psr.ParseFile(path)
		if err != nil {
			return FileResult{}, err
		}
		return *scoreWith(result, thresholds), nil
	}, a.onProgress)

	analysis := buildAnalysis(results)
	if errs != nil {
		for _, pe := range errs.Errors {
			analysis.Skipped = append(analysis.Skipped, pe.Error())
		}
	}
	return analysis, nil
}

func (a *Analyzer) scoreParseResult(result *parser.ParseResult) *FileResult {
	return scoreWith(result, a.thresholds)
}

func scoreWith(result *parser.ParseResult, thresholds Thresholds) *FileResult {
	fr := &FileResult{
		Path:      result.Path,
		Language:  string(result.Language),
		Functions: make([]FunctionResult, 0),
	}

	for _, fn := range parser.GetFunctions(result) {
		scored := scoreFunction(fn, result, thresholds)
		fr.Functions = append(fr.Functions, scored)
		fr.TotalCyclomatic += scored.Metrics.Cyclomatic
		fr.TotalCognitive += scored.Metrics.Cognitive
		fr.ViolationCount += len(scored.Violations)
	}

	if len(fr.Functions) > 0 {
		fr.AvgCyclomatic = float64(fr.TotalCyclomatic) / float64(len(fr.Functions))
		fr.AvgCognitive = float64(fr.TotalCognitive) / float64(len(fr.Functions))
	}

	return fr
}

// scoreFunction computes metrics and checks them against thresholds.
func scoreFunction(fn parser.FunctionNode, result *parser.ParseResult, t Thresholds) FunctionResult {
	fr := FunctionResult{
		Name:      fn.Name,
		StartLine: fn.StartLine,
		EndLine:   fn.EndLine,
	}

	if fn.Body == nil {
		fr.Metrics.Cyclomatic = 1
		return fr
	}

	fr.Metrics.Cyclomatic = 1 + CountDecisionPoints(fn.Body, result.Source, result.Language)
	fr.Metrics.Cognitive = CalculateCognitive(fn.Body, result.Source, result.Language, 0)
	fr.Metrics.MaxNesting = maxNesting(fn.Body, 0)
	fr.Metrics.Statements = CountStatements(fn.Body)
	fr.Metrics.Lines = int(fn.EndLine - fn.StartLine + 1)
	fr.Violations = checkThresholds(fr.Metrics, t)

	return fr
}

func checkThresholds(m Metrics, t Thresholds) []Violation {
	var violations []Violation

	if m.Cyclomatic > t.MaxCyclomatic {
		violations = append(violations, Violation{
			Rule:      RuleCyclomatic,
			Message:   fmt.Sprintf("cyclomatic complexity %d exceeds %d", m.Cyclomatic, t.MaxCyclomatic),
			Value:     int(m.Cyclomatic),
			Threshold: int(t.MaxCyclomatic),
		})
	}
	if m.Cognitive > t.MaxCognitive {
		violations = append(violations, Violation{
			Rule:      RuleCognitive,
			Message:   fmt.Sprintf("cognitive complexity %d exceeds %d", m.Cognitive, t.MaxCognitive),
			Value:     int(m.Cognitive),
			Threshold: int(t.MaxCognitive),
		})
	}
	if m.MaxNesting > t.MaxNesting {
		violations = append(violations, Violation{
			Rule:      RuleNesting,
			Message:   fmt.Sprintf("nesting depth %d exceeds %d", m.MaxNesting, t.MaxNesting),
			Value:     m.MaxNesting,
			Threshold: t.MaxNesting,
		})
	}
	if m.Statements > t.MaxStatements {
		violations = append(violations, Violation{
			Rule:      RuleStatements,
			Message:   fmt.Sprintf("%d statements exceed %d", m.Statements, t.MaxStatements),
			Value:     m.Statements,
			Threshold: t.MaxStatements,
		})
	}
	// Deep nesting combined with a long body means the function is doing
	// low-level work and orchestration in one place.
	if m.MaxNesting > t.MaxNesting && m.Statements > t.MaxStatements {
		violations = append(violations, Violation{
			Rule:      RuleMixedAbstraction,
			Message:   "function mixes abstraction levels: deep nesting in a long body",
			Value:     m.Statements,
			Threshold: t.MaxStatements,
		})
	}

	return violations
}

func buildAnalysis(results []FileResult) *Analysis {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	analysis := &Analysis{Files: results}

	var totalCyc, totalCog uint32
	var totalFuncs int
	for _, fr := range results {
		totalCyc += fr.TotalCyclomatic
		totalCog += fr.TotalCognitive
		totalFuncs += len(fr.Functions)
		analysis.Summary.ViolationCount += fr.ViolationCount
	}

	analysis.Summary.TotalFiles = len(results)
	analysis.Summary.TotalFunctions = totalFuncs
	if totalFuncs > 0 {
		analysis.Summary.AvgCyclomatic = float64(totalCyc) / float64(totalFuncs)
		analysis.Summary.AvgCognitive = float64(totalCog) / float64(totalFuncs)
	}

	allCyclomatic := make([]uint32, 0, totalFuncs)
	allCognitive := make([]uint32, 0, totalFuncs)
	for _, fr := range results {
		for _, fn := range fr.Functions {
			allCyclomatic = append(allCyclomatic, fn.Metrics.Cyclomatic)
			allCognitive = append(allCognitive, fn.Metrics.Cognitive)

			if fn.Metrics.Cyclomatic > analysis.Summary.MaxCyclomatic {
				analysis.Summary.MaxCyclomatic = fn.Metrics.Cyclomatic
			}
			if fn.Metrics.Cognitive > analysis.Summary.MaxCognitive {
				analysis.Summary.MaxCognitive = fn.Metrics.Cognitive
			}
			if fn.Metrics.MaxNesting > analysis.Summary.MaxNesting {
				analysis.Summary.MaxNesting = fn.Metrics.MaxNesting
			}
		}
	}

	if len(allCyclomatic) > 0 {
		sort.Slice(allCyclomatic, func(i, j int) bool { return allCyclomatic[i] < allCyclomatic[j] })
		sort.Slice(allCognitive, func(i, j int) bool { return allCognitive[i] < allCognitive[j] })

		analysis.Summary.P50Cyclomatic = stats.PercentileUint32(allCyclomatic, 50)
		analysis.Summary.P90Cyclomatic = stats.PercentileUint32(allCyclomatic, 90)
		analysis.Summary.P95Cyclomatic = stats.PercentileUint32(allCyclomatic, 95)
		analysis.Summary.P50Cognitive = stats.PercentileUint32(allCognitive, 50)
		analysis.Summary.P90Cognitive = stats.PercentileUint32(allCognitive, 90)
		analysis.Summary.P95Cognitive = stats.PercentileUint32(allCognitive, 95)
	}

	return analysis
}

// CountDecisionPoints counts branching constructs for cyclomatic complexity.
func CountDecisionPoints(node *sitter.Node, source []byte, lang parser.Language) uint32 {
	var count uint32

	decisionTypes := decisionNodeTypes(lang)

	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if decisionTypes[nodeType] {
			count++
		}
		// Logical operators are extra decision points.
		if nodeType == "binary_expression" || nodeType == "logical_expression" || nodeType == "boolean_operator" {
			op := binaryOperator(n, src)
			if op == "&&" || op == "||" || op == "and" || op == "or" {
				count++
			}
		}
		return true
	})

	return count
}

// CountStatements counts statement-level nodes in a subtree. Grammar node
// names vary, so a suffix check covers most languages with a small set of
// extras for the ones that don't follow the convention.
func CountStatements(node *sitter.Node) int {
	count := 0
	parser.WalkTyped(node, nil, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if isStatementType(nodeType) {
			count++
		}
		return true
	})
	return count
}

func isStatementType(nodeType string) bool {
	if strings.HasSuffix(nodeType, "_statement") {
		return true
	}
	switch nodeType {
	// declarations inside bodies
	case "short_var_declaration", "var_declaration", "const_declaration",
		"let_declaration", "assignment", "augmented_assignment",
		// Ruby statement forms
		"call", "while", "until", "if", "unless", "case":
		return true
	}
	return false
}

// binaryOperator extracts the operator token from a binary expression.
func binaryOperator(node *sitter.Node, source []byte) string {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "&&", "||", "and", "or":
			return child.Type()
		}
		if child.IsNamed() && child.Type() == "operator" {
			return parser.GetNodeText(child, source)
		}
	}
	return ""
}

// decisionNodeTypes returns the AST node types that count as decision
// points for a language.
func decisionNodeTypes(lang parser.Language) map[string]bool {
	common := []string{
		"if_statement",
		"if_expression",
		"while_statement",
		"while_expression",
		"for_statement",
		"for_expression",
		"case_statement",
		"catch_clause",
		"ternary_expression",
		"conditional_expression",
	}

	var extra []string
	switch lang {
	case parser.LangGo:
		extra = []string{"select_statement", "type_switch_statement", "expression_switch_statement", "communication_case"}
	case parser.LangRust:
		extra = []string{"match_expression", "loop_expression", "if_let_expression"}
	case parser.LangPython:
		extra = []string{"elif_clause", "except_clause", "with_statement", "list_comprehension", "dictionary_comprehension"}
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		extra = []string{"switch_statement", "do_statement"}
	case parser.LangJava, parser.LangCSharp:
		extra = []string{"switch_statement", "switch_expression", "do_statement", "enhanced_for_statement"}
	case parser.LangC, parser.LangCPP:
		extra = []string{"switch_statement", "do_statement"}
	case parser.LangRuby:
		// Ruby's grammar uses bare keywords as node names.
		return makeSet([]string{"if", "elsif", "unless", "while", "until", "for", "case", "when", "rescue", "conditional"})
	case parser.LangPHP:
		extra = []string{"switch_statement", "elseif_clause"}
	}

	return makeSet(append(common, extra...))
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// cognitiveTypeInfo separates constructs that deepen nesting from those
// that add complexity at the current level.
type cognitiveTypeInfo struct {
	nesting map[string]bool
	flat    map[string]bool
}

func cognitiveTypes(lang parser.Language) cognitiveTypeInfo {
	var nesting, flat []string

	switch lang {
	case parser.LangRuby:
		nesting = []string{"if", "unless", "while", "until", "for", "case", "begin"}
		flat = []string{"elsif", "else", "when", "rescue", "break", "next", "redo"}
	default:
		nesting = []string{
			"if_statement", "if_expression",
			"while_statement", "while_expression",
			"for_statement", "for_expression",
			"switch_statement", "match_expression",
			"try_statement",
		}
		flat = []string{
			"else_clause", "elif_clause", "elseif_clause",
			"break_statement", "continue_statement",
			"goto_statement",
		}
	}

	return cognitiveTypeInfo{
		nesting: makeSet(nesting),
		flat:    makeSet(flat),
	}
}

// CalculateCognitive computes cognitive complexity with nesting penalties.
func CalculateCognitive(node *sitter.Node, source []byte, lang parser.Language, depth int) uint32 {
	return cognitiveRecursive(node, cognitiveTypes(lang), depth)
}

func cognitiveRecursive(node *sitter.Node, info cognitiveTypeInfo, depth int) uint32 {
	var complexity uint32

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childType := child.Type()

		switch {
		case info.nesting[childType]:
			complexity += 1 + uint32(depth)
			complexity += cognitiveRecursive(child, info, depth+1)
		case info.flat[childType]:
			complexity += 1 + uint32(depth)
			complexity += cognitiveRecursive(child, info, depth)
		default:
			complexity += cognitiveRecursive(child, info, depth)
		}
	}

	return complexity
}

// nestingTypes are constructs that count toward nesting depth.
var nestingTypes = makeSet([]string{
	"if_statement", "if_expression", "if", "unless",
	"while_statement", "while_expression", "while", "until",
	"for_statement", "for_expression", "for",
	"switch_statement", "match_expression", "case",
	"expression_switch_statement", "type_switch_statement", "select_statement",
	"try_statement", "begin",
	"function_definition", "function_declaration", "method",
	"lambda_expression", "arrow_function", "func_literal",
})

func maxNesting(node *sitter.Node, currentDepth int) int {
	maxDepth := currentDepth

	for i := range int(node.ChildCount()) {
		child := node.Child(i)

		childDepth := currentDepth
		if nestingTypes[child.Type()] {
			childDepth++
		}
		if childMax := maxNesting(child, childDepth); childMax > maxDepth {
			maxDepth = childMax
		}
	}

	return maxDepth
}
