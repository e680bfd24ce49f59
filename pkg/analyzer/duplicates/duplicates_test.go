package duplicates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"counsel/pkg/parser"
)

const fileA = `package a

func ProcessItems(items []int) int {
	total := 0
	for _, item := range items {
		if item > 0 {
			total += item
		} else {
			total -= item
		}
	}
	return total
}
`

// Same structure as fileA with every identifier renamed.
const fileB = `package b

func SumValues(values []int) int {
	acc := 0
	for _, v := range values {
		if v > 0 {
			acc += v
		} else {
			acc -= v
		}
	}
	return acc
}
`

const fileC = `package c

import "strings"

func Titles(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.ToUpper(name))
	}
	return out
}
`

// An arrow function nested inside a function declaration: both are
// extracted as fragments, and their token streams are nearly identical.
const fileNested = `function wrapper(items) {
	const handler = (values) => {
		let total = 0;
		for (const value of values) {
			if (value > 0) {
				total += value;
			} else {
				total -= value;
			}
		}
		return total;
	};
	return handler;
}
`

func writeFixtures(t *testing.T, contents map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range contents {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestNormalizeTokens_RenamedFragmentsMatch(t *testing.T) {
	psr := parser.New()
	defer psr.Close()

	cfg := DefaultConfig()

	tokensFor := func(source string) []string {
		result, err := psr.Parse([]byte(source), parser.LangGo, "t.go")
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		functions := parser.GetFunctions(result)
		if len(functions) != 1 {
			t.Fatalf("functions = %d, want 1", len(functions))
		}
		return normalizeTokens(parser.LeafTokens(functions[0].Body, result.Source), cfg)
	}

	a := tokensFor(fileA)
	b := tokensFor(fileB)

	if len(a) == 0 {
		t.Fatal("expected tokens")
	}
	if len(a) != len(b) {
		t.Fatalf("token counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestAnalyze_FindsRenamedClone(t *testing.T) {
	paths := writeFixtures(t, map[string]string{
		"a.go": fileA,
		"b.go": fileB,
		"c.go": fileC,
	})

	a := New(WithMinTokens(10), WithSimilarityThreshold(0.8))
	analysis, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(analysis.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(analysis.Groups))
	}

	group := analysis.Groups[0]
	if len(group.Instances) != 2 {
		t.Fatalf("instances = %d, want 2", len(group.Instances))
	}
	if group.Type != TypeExact {
		t.Errorf("type = %s, want %s (identical after normalization)", group.Type, TypeExact)
	}
	if group.AverageSimilarity < 0.99 {
		t.Errorf("similarity = %f, want ~1.0", group.AverageSimilarity)
	}

	names := map[string]bool{}
	for _, inst := range group.Instances {
		names[inst.Function] = true
	}
	if !names["ProcessItems"] || !names["SumValues"] {
		t.Errorf("unexpected instance functions: %v", names)
	}

	if analysis.Summary.DuplicatedLines == 0 {
		t.Error("expected duplicated lines")
	}
	if analysis.Summary.DuplicationRatio <= 0 || analysis.Summary.DuplicationRatio > 1 {
		t.Errorf("ratio = %f, want (0,1]", analysis.Summary.DuplicationRatio)
	}
	if len(analysis.Summary.Hotspots) == 0 {
		t.Error("expected hotspots")
	}
}

func TestAnalyze_MinTokensFiltersSmallFragments(t *testing.T) {
	paths := writeFixtures(t, map[string]string{
		"a.go": fileA,
		"b.go": fileB,
	})

	a := New(WithMinTokens(500))
	analysis, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Groups) != 0 {
		t.Errorf("groups = %d, want 0", len(analysis.Groups))
	}
}

func TestAnalyze_NestedFragmentsNeverPairWithinAFile(t *testing.T) {
	paths := writeFixtures(t, map[string]string{"nested.js": fileNested})

	a := New(WithMinTokens(10), WithSimilarityThreshold(0.5))
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for _, group := range analysis.Groups {
		for i, inst := range group.Instances {
			for _, other := range group.Instances[i+1:] {
				if inst.File == other.File &&
					inst.StartLine <= other.EndLine && other.StartLine <= inst.EndLine {
					t.Fatalf("group %d pairs overlapping fragments %d-%d and %d-%d in %s",
						group.ID, inst.StartLine, inst.EndLine,
						other.StartLine, other.EndLine, inst.File)
				}
			}
		}
	}
	if len(analysis.Groups) != 0 {
		t.Errorf("groups = %d, want 0 (only fragments are nested in one file)", len(analysis.Groups))
	}
}

func TestAnalyze_SkipsBadFiles(t *testing.T) {
	paths := writeFixtures(t, map[string]string{"a.go": fileA})
	paths = append(paths, filepath.Join(t.TempDir(), "missing.go"))

	a := New(WithMinTokens(10))
	analysis, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(analysis.Skipped) != 1 {
		t.Errorf("skipped = %v, want one entry", analysis.Skipped)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	paths := writeFixtures(t, map[string]string{
		"a.go": fileA,
		"b.go": fileB,
	})

	a := New(WithMinTokens(10))
	first, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := a.Analyze(context.Background(), paths)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(first.Groups) != len(second.Groups) {
		t.Fatalf("group counts differ across runs")
	}
	for i := range first.Groups {
		fi, si := first.Groups[i].Instances, second.Groups[i].Instances
		if len(fi) != len(si) {
			t.Fatalf("instance counts differ for group %d", i)
		}
		for j := range fi {
			if fi[j].File != si[j].File || fi[j].StartLine != si[j].StartLine {
				t.Errorf("instance order differs at group %d index %d", i, j)
			}
		}
	}
}

func TestMinHashSignature_Similarity(t *testing.T) {
	s1 := &MinHashSignature{Values: []uint64{1, 2, 3, 4}}
	s2 := &MinHashSignature{Values: []uint64{1, 2, 9, 4}}

	if got := s1.Similarity(s2); got != 0.75 {
		t.Errorf("similarity = %f, want 0.75", got)
	}
	if got := s1.Similarity(s1); got != 1.0 {
		t.Errorf("self similarity = %f, want 1.0", got)
	}
	if got := s1.Similarity(&MinHashSignature{}); got != 0 {
		t.Errorf("mismatched lengths = %f, want 0", got)
	}
	var nilSig *MinHashSignature
	if got := nilSig.Similarity(s1); got != 0 {
		t.Errorf("nil signature = %f, want 0", got)
	}
}

func TestClassify(t *testing.T) {
	if classify(0.99) != TypeExact {
		t.Error("0.99 should be exact")
	}
	if classify(0.90) != TypeParametric {
		t.Error("0.90 should be parametric")
	}
	if classify(0.80) != TypeStructural {
		t.Error("0.80 should be structural")
	}
}
