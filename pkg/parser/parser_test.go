package parser

import (
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"lib.rs", LangRust},
		{"script.py", LangPython},
		{"app.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"component.jsx", LangTSX},
		{"index.js", LangJavaScript},
		{"Main.java", LangJava},
		{"util.c", LangC},
		{"util.hpp", LangCPP},
		{"Program.cs", LangCSharp},
		{"model.rb", LangRuby},
		{"index.php", LangPHP},
		{"setup.sh", LangBash},
		{"README.md", LangUnknown},
		{"data.json", LangUnknown},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParse_Go(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`package main

func add(a, b int) int {
	return a + b
}

func main() {
	println(add(1, 2))
}
`)

	result, err := p.Parse(source, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Tree == nil {
		t.Fatal("result.Tree is nil")
	}
	if result.Language != LangGo {
		t.Errorf("Language = %v, want %v", result.Language, LangGo)
	}
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse([]byte("hello"), LangUnknown, "file.txt")
	if err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestGetFunctions_Go(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`package main

func first() {}

func second(x int) int {
	if x > 0 {
		return x
	}
	return -x
}

type T struct{}

func (t T) Method() {}
`)

	result, err := p.Parse(source, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	functions := GetFunctions(result)
	if len(functions) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(functions))
	}

	names := make(map[string]bool)
	for _, fn := range functions {
		names[fn.Name] = true
	}
	for _, want := range []string{"first", "second", "Method"} {
		if !names[want] {
			t.Errorf("missing function %q", want)
		}
	}
}

func TestGetFunctions_Python(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`def greet(name):
    return "hello " + name

class Greeter:
    def shout(self, name):
        return greet(name).upper()
`)

	result, err := p.Parse(source, LangPython, "greet.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	functions := GetFunctions(result)
	if len(functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(functions))
	}
	if functions[0].Name != "greet" {
		t.Errorf("first function = %q, want greet", functions[0].Name)
	}
	if functions[0].Body == nil {
		t.Error("function body is nil")
	}
}

func TestIdentifiers_Go(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`package main

const maxRetries = 3

type Widget struct {
	label string
}

func process(input string) string {
	result := input
	return result
}
`)

	result, err := p.Parse(source, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	idents := Identifiers(result)
	byName := make(map[string]Identifier)
	for _, id := range idents {
		byName[id.Name] = id
	}

	tests := []struct {
		name string
		kind IdentKind
	}{
		{"maxRetries", KindConstant},
		{"Widget", KindType},
		{"label", KindField},
		{"process", KindFunction},
		{"input", KindParameter},
		{"result", KindVariable},
	}
	for _, tt := range tests {
		id, ok := byName[tt.name]
		if !ok {
			t.Errorf("missing identifier %q", tt.name)
			continue
		}
		if id.Kind != tt.kind {
			t.Errorf("identifier %q kind = %v, want %v", tt.name, id.Kind, tt.kind)
		}
	}

	if !byName["Widget"].Exported {
		t.Error("Widget should be exported")
	}
	if byName["process"].Exported {
		t.Error("process should not be exported")
	}
	if byName["result"].Enclosing != "process" {
		t.Errorf("result enclosing = %q, want process", byName["result"].Enclosing)
	}
}

func TestLeafTokens(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte(`package main

// adds two numbers
func add(a, b int) int {
	return a + b + 42
}
`)

	result, err := p.Parse(source, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tokens := LeafTokens(result.Tree.RootNode(), result.Source)
	if len(tokens) == 0 {
		t.Fatal("no tokens extracted")
	}

	var idents, literals, comments int
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenIdent:
			idents++
		case TokenLiteral:
			literals++
		case TokenComment:
			comments++
		}
	}

	if idents == 0 {
		t.Error("expected identifier tokens")
	}
	if literals == 0 {
		t.Error("expected literal tokens (42)")
	}
	if comments != 1 {
		t.Errorf("comments = %d, want 1", comments)
	}
}
