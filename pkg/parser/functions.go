package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionNode represents a parsed function or method definition.
type FunctionNode struct {
	Name       string
	StartLine  uint32
	EndLine    uint32
	Parameters []string
	Body       *sitter.Node
	Node       *sitter.Node
}

// GetFunctions extracts all function definitions from parsed code.
func GetFunctions(result *ParseResult) []FunctionNode {
	var functions []FunctionNode
	root := result.Tree.RootNode()

	funcTypes := makeSet(functionNodeTypes(result.Language))

	WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if funcTypes[nodeType] {
			functions = append(functions, extractFunction(node, source, result.Language))
		}
		return true
	})

	return functions
}

// functionNodeTypes returns the AST node types that declare functions.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangRust:
		return []string{"function_item"}
	case LangPython:
		return []string{"function_definition"}
	case LangTypeScript, LangJavaScript, LangTSX:
		return []string{"function_declaration", "function", "arrow_function", "method_definition"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangC, LangCPP:
		return []string{"function_definition"}
	case LangCSharp:
		return []string{"method_declaration", "constructor_declaration"}
	case LangRuby:
		return []string{"method", "singleton_method"}
	case LangPHP:
		return []string{"function_definition", "method_declaration"}
	default:
		return nil
	}
}

// extractFunction pulls the name, body, and parameter names out of a
// function node. Field names vary by grammar.
func extractFunction(node *sitter.Node, source []byte, lang Language) FunctionNode {
	fn := FunctionNode{
		StartLine: node.StartPoint().Row + 1,
		EndLine:   node.EndPoint().Row + 1,
		Node:      node,
	}

	switch lang {
	case LangC, LangCPP:
		// C/C++ nest the name inside the declarator
		if decl := node.ChildByFieldName("declarator"); decl != nil {
			if name := decl.ChildByFieldName("declarator"); name != nil {
				fn.Name = GetNodeText(name, source)
			}
		}
	default:
		if name := node.ChildByFieldName("name"); name != nil {
			fn.Name = GetNodeText(name, source)
		}
	}

	fn.Body = node.ChildByFieldName("body")
	if fn.Body == nil {
		fn.Body = node.ChildByFieldName("block")
	}
	if fn.Body == nil {
		// Ruby method bodies
		fn.Body = node.ChildByFieldName("body_statement")
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := range int(params.ChildCount()) {
			child := params.Child(i)
			if child.Type() == "identifier" {
				fn.Parameters = append(fn.Parameters, GetNodeText(child, source))
				continue
			}
			if name := child.ChildByFieldName("name"); name != nil {
				fn.Parameters = append(fn.Parameters, GetNodeText(name, source))
			}
		}
	}

	return fn
}

// makeSet converts a slice to a map for O(1) lookups.
func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
