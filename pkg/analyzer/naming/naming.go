// Package naming flags identifiers whose names hurt readability: too
// short, numeric-suffixed, abbreviation-heavy, or vague.
package naming

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"counsel/internal/fileproc"
	"counsel/pkg/analyzer"
	"counsel/pkg/config"
	"counsel/pkg/parser"
	"counsel/pkg/stats"
)

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer runs the identifier heuristics.
type Analyzer struct {
	config     Config
	onProgress fileproc.ProgressFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig derives heuristic settings from the loaded configuration.
func WithConfig(cfg config.NamingConfig) Option {
	return func(a *Analyzer) {
		a.config = Config{
			MinLength:       cfg.MinLength,
			AllowShort:      makeSet(cfg.AllowShort),
			VagueNames:      makeSet(cfg.VagueNames),
			KnownAbbrevs:    makeSet(cfg.KnownAbbrevs),
			FlagNumericTail: cfg.FlagNumericTail,
		}
	}
}

// WithProgress sets a callback invoked after each file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a naming analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{config: DefaultConfig()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close implements analyzer.FileAnalyzer.
func (a *Analyzer) Close() {}

// Analyze checks identifiers in all files. Unparseable files are recorded
// in Analysis.Skipped and never abort the run.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	cfg := a.config

	results, errs := fileproc.MapFiles(ctx, files, func(psr *parser.Parser, path string) (FileResult, error) {
		result, err := psr.ParseFile(path)
		if err != nil {
			return FileResult{}, err
		}
		return checkFile(result, cfg), nil
	}, a.onProgress)

	analysis := buildAnalysis(results)
	if errs != nil {
		for _, pe := range errs.Errors {
			analysis.Skipped = append(analysis.Skipped, pe.Error())
		}
	}
	return analysis, nil
}

// CheckFile runs the heuristics on one parsed file.
func (a *Analyzer) CheckFile(result *parser.ParseResult) FileResult {
	return checkFile(result, a.config)
}

func checkFile(result *parser.ParseResult, cfg Config) FileResult {
	fr := FileResult{
		Path:     result.Path,
		Language: string(result.Language),
	}

	for _, ident := range parser.Identifiers(result) {
		if ident.Name == "" || ident.Name == "_" {
			continue
		}
		fr.Identifiers++
		fr.NameLengths = append(fr.NameLengths, len(ident.Name))
		fr.Issues = append(fr.Issues, checkIdentifier(ident, cfg)...)
	}

	sort.Slice(fr.Issues, func(i, j int) bool {
		if fr.Issues[i].Line != fr.Issues[j].Line {
			return fr.Issues[i].Line < fr.Issues[j].Line
		}
		if fr.Issues[i].Column != fr.Issues[j].Column {
			return fr.Issues[i].Column < fr.Issues[j].Column
		}
		return fr.Issues[i].Rule < fr.Issues[j].Rule
	})

	return fr
}

// checkIdentifier applies every heuristic; an identifier can trip more
// than one.
func checkIdentifier(ident parser.Identifier, cfg Config) []Issue {
	var issues []Issue

	flag := func(rule, message string) {
		issues = append(issues, Issue{
			Rule:      rule,
			Name:      ident.Name,
			Kind:      string(ident.Kind),
			Line:      ident.Line,
			Column:    ident.Column,
			Enclosing: ident.Enclosing,
			Message:   message,
		})
	}

	lower := strings.ToLower(ident.Name)
	stem, tail := splitNumericTail(lower)

	if len(ident.Name) < cfg.MinLength && !cfg.AllowShort[lower] {
		flag(RuleTooShort, fmt.Sprintf("name %q is shorter than %d characters", ident.Name, cfg.MinLength))
	}

	if cfg.FlagNumericTail && tail != "" && stem != "" && !numericTailExempt[lower] {
		flag(RuleNumericSuffix, fmt.Sprintf("name %q uses a numeric suffix instead of a descriptive name", ident.Name))
	}

	if word := abbreviationIn(ident.Name, cfg); word != "" {
		flag(RuleAbbreviation, fmt.Sprintf("name %q contains opaque abbreviation %q", ident.Name, word))
	}

	if cfg.VagueNames[lower] || (tail != "" && cfg.VagueNames[stem]) {
		flag(RuleVague, fmt.Sprintf("name %q says nothing about its content", ident.Name))
	}

	return issues
}

// numericTailExempt covers names where trailing digits are part of an
// established term, not a counter.
var numericTailExempt = map[string]bool{
	"utf8": true, "utf16": true, "base64": true, "base32": true,
	"float32": true, "float64": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "uint8": true, "uint16": true,
	"uint32": true, "uint64": true, "sha1": true, "sha256": true,
	"sha512": true, "md5": true, "crc32": true, "http2": true,
	"oauth2": true, "ipv4": true, "ipv6": true, "s3": true,
	"p50": true, "p90": true, "p95": true, "p99": true,
}

// splitNumericTail splits "data2" into ("data", "2").
func splitNumericTail(name string) (stem, tail string) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	return name[:i], name[i:]
}

// abbreviationIn returns the first word of the identifier that reads as an
// opaque abbreviation: either a configured one, or a vowel-starved run of
// four or more letters.
func abbreviationIn(name string, cfg Config) string {
	for _, word := range SplitWords(name) {
		lower := strings.ToLower(word)
		if cfg.KnownAbbrevs[lower] {
			return word
		}
		if len(lower) >= 4 && !hasVowel(lower) && !hasDigit(lower) {
			return word
		}
	}
	return ""
}

func hasVowel(word string) bool {
	return strings.ContainsAny(word, "aeiouy")
}

func hasDigit(word string) bool {
	for _, r := range word {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// SplitWords breaks an identifier into words across camelCase, snake_case,
// and acronym boundaries ("parseHTTPRequest" -> parse, HTTP, Request).
func SplitWords(name string) []string {
	var words []string
	var current []rune

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '$':
			if len(current) > 0 {
				words = append(words, string(current))
				current = nil
			}
		case unicode.IsUpper(r):
			if len(current) > 0 {
				last := current[len(current)-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				// boundary before an upper after a lower, or at the end of
				// an acronym run (HTTPServer -> HTTP | Server)
				if unicode.IsLower(last) || unicode.IsDigit(last) || (unicode.IsUpper(last) && nextLower) {
					words = append(words, string(current))
					current = nil
				}
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}

	return words
}

func buildAnalysis(results []FileResult) *Analysis {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	analysis := &Analysis{
		Files:   results,
		Summary: Summary{ByRule: make(map[string]int)},
	}

	var lengths []float64
	for _, fr := range results {
		analysis.Summary.TotalFiles++
		analysis.Summary.TotalIdentifiers += fr.Identifiers
		analysis.Summary.FlaggedCount += len(fr.Issues)
		for _, issue := range fr.Issues {
			analysis.Summary.ByRule[issue.Rule]++
		}
		for _, l := range fr.NameLengths {
			lengths = append(lengths, float64(l))
		}
	}

	analysis.Summary.MeanNameLength, analysis.Summary.StdDevNameLength = stats.MeanStdDev(lengths)
	return analysis
}
