package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TokenKind classifies a leaf token for normalization purposes.
type TokenKind uint8

const (
	TokenOther TokenKind = iota
	TokenIdent
	TokenLiteral
	TokenComment
)

// Token is a single leaf of an AST subtree in source order.
type Token struct {
	Kind TokenKind
	Text string
}

// literalTypeFragments mark node types whose subtree is a single literal
// value. Matching is by substring because grammars disagree on exact names
// (string_literal, interpreted_string_literal, integer_literal, ...).
var literalTypeFragments = []string{
	"string", "char", "rune", "number", "integer", "float", "boolean",
	"true", "false", "nil", "null", "none",
}

func isLiteralType(nodeType string) bool {
	for _, frag := range literalTypeFragments {
		if strings.Contains(nodeType, frag) {
			return true
		}
	}
	return false
}

func isCommentType(nodeType string) bool {
	return strings.Contains(nodeType, "comment")
}

// LeafTokens flattens an AST subtree into its leaf tokens in source order.
// Literal subtrees are emitted as a single token so that normalization can
// collapse them without caring about quoting or escapes.
func LeafTokens(node *sitter.Node, source []byte) []Token {
	var tokens []Token

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		nodeType := n.Type()

		if isCommentType(nodeType) {
			tokens = append(tokens, Token{Kind: TokenComment, Text: GetNodeText(n, source)})
			return
		}
		if isLiteralType(nodeType) {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: GetNodeText(n, source)})
			return
		}

		if n.ChildCount() == 0 {
			kind := TokenOther
			if identifierLeafTypes[nodeType] {
				kind = TokenIdent
			}
			text := GetNodeText(n, source)
			if text != "" {
				tokens = append(tokens, Token{Kind: kind, Text: text})
			}
			return
		}

		for i := range int(n.ChildCount()) {
			walk(n.Child(i))
		}
	}

	if node != nil {
		walk(node)
	}

	return tokens
}
