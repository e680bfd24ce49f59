package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"counsel/pkg/config"
	"counsel/pkg/parser"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "main.go"), "package main\n")
	mustWrite(t, filepath.Join(dir, "lib", "util.py"), "x = 1\n")
	mustWrite(t, filepath.Join(dir, "README.md"), "# readme\n")
	mustWrite(t, filepath.Join(dir, "vendor", "dep.go"), "package dep\n")
	mustWrite(t, filepath.Join(dir, "main_test.go"), "package main\n")

	s := New(config.Default())
	files, err := s.ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	found := make(map[string]bool)
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		found[rel] = true
	}

	if !found["main.go"] {
		t.Error("main.go should be found")
	}
	if !found[filepath.Join("lib", "util.py")] {
		t.Error("lib/util.py should be found")
	}
	if found["README.md"] {
		t.Error("README.md should be skipped (unsupported)")
	}
	if found[filepath.Join("vendor", "dep.go")] {
		t.Error("vendor/dep.go should be excluded")
	}
	if found["main_test.go"] {
		t.Error("main_test.go should be excluded by pattern")
	}
}

func TestScanDir_GitignorePatterns(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	mustWrite(t, filepath.Join(dir, ".gitignore"), "generated/\n")
	mustWrite(t, filepath.Join(dir, "app.go"), "package app\n")
	mustWrite(t, filepath.Join(dir, "generated", "gen.go"), "package gen\n")

	s := New(config.Default())
	files, err := s.ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		if rel == filepath.Join("generated", "gen.go") {
			t.Error("gitignored file should be excluded")
		}
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %d", len(files))
	}
}

func TestScanPaths_GitignoreScopedPerRoot(t *testing.T) {
	repoA := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repoA, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	mustWrite(t, filepath.Join(repoA, ".gitignore"), "helpers.go\n")
	mustWrite(t, filepath.Join(repoA, "main.go"), "package a\n")
	mustWrite(t, filepath.Join(repoA, "helpers.go"), "package a\n")

	repoB := t.TempDir()
	mustWrite(t, filepath.Join(repoB, "helpers.go"), "package b\n")

	s := New(config.Default())
	files, err := s.ScanPaths([]string{repoA, repoB})
	if err != nil {
		t.Fatalf("ScanPaths failed: %v", err)
	}

	found := make(map[string]bool)
	for _, f := range files {
		found[f] = true
	}

	if found[filepath.Join(repoA, "helpers.go")] {
		t.Error("repoA/helpers.go should be gitignored")
	}
	if !found[filepath.Join(repoB, "helpers.go")] {
		t.Error("repoB/helpers.go should be found: repoA's .gitignore must not apply")
	}
}

func TestScanPaths_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.go")
	mustWrite(t, path, "package one\n")

	s := New(config.Default())
	files, err := s.ScanPaths([]string{path})
	if err != nil {
		t.Fatalf("ScanPaths failed: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("files = %v, want [%s]", files, path)
	}
}

func TestScanPaths_MissingPath(t *testing.T) {
	s := New(config.Default())
	if _, err := s.ScanPaths([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestGroupByLanguage(t *testing.T) {
	groups := GroupByLanguage([]string{"a.go", "b.go", "c.py", "d.md"})

	if len(groups[parser.LangGo]) != 2 {
		t.Errorf("go files = %d, want 2", len(groups[parser.LangGo]))
	}
	if len(groups[parser.LangPython]) != 1 {
		t.Errorf("python files = %d, want 1", len(groups[parser.LangPython]))
	}
	if _, ok := groups[parser.LangUnknown]; ok {
		t.Error("unknown language should not be grouped")
	}
}
