package fileproc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"counsel/pkg/parser"
	"counsel/pkg/source"
)

func writeFiles(t *testing.T, contents map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range contents {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestMapFiles(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"a.go": "package a\n\nfunc A() {}\n",
		"b.go": "package b\n\nfunc B() {}\nfunc C() {}\n",
	})

	results, errs := MapFiles(context.Background(), paths, func(psr *parser.Parser, path string) (int, error) {
		result, err := psr.ParseFile(path)
		if err != nil {
			return 0, err
		}
		return len(parser.GetFunctions(result)), nil
	}, nil)

	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	total := 0
	for _, n := range results {
		total += n
	}
	if total != 3 {
		t.Errorf("total functions = %d, want 3", total)
	}
}

func TestMapFiles_CollectsErrors(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"ok.go": "package ok\n",
	})
	paths = append(paths, filepath.Join(t.TempDir(), "missing.go"))

	results, errs := MapFiles(context.Background(), paths, func(psr *parser.Parser, path string) (string, error) {
		if _, err := psr.ParseFile(path); err != nil {
			return "", err
		}
		return path, nil
	}, nil)

	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	if errs == nil || !errs.HasErrors() {
		t.Fatal("expected collected errors")
	}
	if len(errs.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(errs.Errors))
	}
}

func TestMapFiles_Empty(t *testing.T) {
	results, errs := MapFiles(context.Background(), nil, func(psr *parser.Parser, path string) (int, error) {
		return 0, nil
	}, nil)
	if results != nil || errs != nil {
		t.Error("expected nil results and errors for empty input")
	}
}

func TestMapFiles_Progress(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
		"c.go": "package c\n",
	})

	var ticks atomic.Int32
	_, _ = MapFiles(context.Background(), paths, func(psr *parser.Parser, path string) (struct{}, error) {
		return struct{}{}, nil
	}, func() { ticks.Add(1) })

	if got := ticks.Load(); got != 3 {
		t.Errorf("progress ticks = %d, want 3", got)
	}
}

func TestMapSourceFiles(t *testing.T) {
	src := source.NewMemory()
	src.Put("mem.go", []byte("package mem\n\nfunc One() {}\n"))

	results, errs := MapSourceFiles(context.Background(), []string{"mem.go"}, src,
		func(psr *parser.Parser, path string, content []byte) (int, error) {
			result, err := psr.Parse(content, parser.LangGo, path)
			if err != nil {
				return 0, err
			}
			return len(parser.GetFunctions(result)), nil
		}, nil)

	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 1 || results[0] != 1 {
		t.Errorf("results = %v, want [1]", results)
	}
}

func TestForEachFile(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"a.txt": "one",
		"b.txt": "two",
	})

	results, errs := ForEachFile(context.Background(), paths, func(path string) ([]byte, error) {
		return os.ReadFile(path)
	}, nil)

	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestProcessingErrors_Error(t *testing.T) {
	errs := &ProcessingErrors{}
	if errs.Error() != "no errors" {
		t.Errorf("empty Error() = %q", errs.Error())
	}

	errs.Add("a.go", errors.New("boom"))
	if errs.Error() != "a.go: boom" {
		t.Errorf("single Error() = %q", errs.Error())
	}

	errs.Add("b.go", errors.New("bang"))
	want := "2 files failed to process (first: a.go: boom)"
	if errs.Error() != want {
		t.Errorf("multi Error() = %q, want %q", errs.Error(), want)
	}
}
