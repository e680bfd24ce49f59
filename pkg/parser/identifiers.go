package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// IdentKind classifies what an identifier declares.
type IdentKind string

const (
	KindFunction  IdentKind = "function"
	KindMethod    IdentKind = "method"
	KindParameter IdentKind = "parameter"
	KindVariable  IdentKind = "variable"
	KindConstant  IdentKind = "constant"
	KindType      IdentKind = "type"
	KindField     IdentKind = "field"
)

// Identifier is a declared name with its position and declaration kind.
type Identifier struct {
	Name      string
	Kind      IdentKind
	Line      uint32
	Column    uint32
	Exported  bool
	Enclosing string // name of the enclosing function, if any
}

// declRule maps a declaration node type to the kind it declares and the
// field names (tried in order) that hold the declared name.
type declRule struct {
	kind       IdentKind
	nameFields []string
}

// declRules returns the declaration node types for a language.
func declRules(lang Language) map[string]declRule {
	switch lang {
	case LangGo:
		return map[string]declRule{
			"function_declaration":  {KindFunction, []string{"name"}},
			"method_declaration":    {KindMethod, []string{"name"}},
			"parameter_declaration": {KindParameter, []string{"name"}},
			"short_var_declaration": {KindVariable, []string{"left"}},
			"var_spec":              {KindVariable, []string{"name"}},
			"const_spec":            {KindConstant, []string{"name"}},
			"type_spec":             {KindType, []string{"name"}},
			"field_declaration":     {KindField, []string{"name"}},
		}
	case LangRust:
		return map[string]declRule{
			"function_item":     {KindFunction, []string{"name"}},
			"parameter":         {KindParameter, []string{"pattern"}},
			"let_declaration":   {KindVariable, []string{"pattern"}},
			"struct_item":       {KindType, []string{"name"}},
			"enum_item":         {KindType, []string{"name"}},
			"const_item":        {KindConstant, []string{"name"}},
			"field_declaration": {KindField, []string{"name"}},
		}
	case LangPython:
		return map[string]declRule{
			"function_definition": {KindFunction, []string{"name"}},
			"class_definition":    {KindType, []string{"name"}},
			"assignment":          {KindVariable, []string{"left"}},
		}
	case LangTypeScript, LangJavaScript, LangTSX:
		return map[string]declRule{
			"function_declaration": {KindFunction, []string{"name"}},
			"method_definition":    {KindMethod, []string{"name"}},
			"variable_declarator":  {KindVariable, []string{"name"}},
			"class_declaration":    {KindType, []string{"name"}},
			"required_parameter":   {KindParameter, []string{"pattern"}},
		}
	case LangJava:
		return map[string]declRule{
			"method_declaration":    {KindMethod, []string{"name"}},
			"class_declaration":     {KindType, []string{"name"}},
			"interface_declaration": {KindType, []string{"name"}},
			"formal_parameter":      {KindParameter, []string{"name"}},
			"variable_declarator":   {KindVariable, []string{"name"}},
		}
	case LangCSharp:
		return map[string]declRule{
			"method_declaration":   {KindMethod, []string{"name"}},
			"class_declaration":    {KindType, []string{"name"}},
			"parameter":            {KindParameter, []string{"name"}},
			"variable_declarator":  {KindVariable, []string{"name"}},
			"property_declaration": {KindField, []string{"name"}},
		}
	case LangC, LangCPP:
		return map[string]declRule{
			"function_definition":   {KindFunction, []string{"declarator"}},
			"parameter_declaration": {KindParameter, []string{"declarator"}},
			"init_declarator":       {KindVariable, []string{"declarator"}},
			"field_declaration":     {KindField, []string{"declarator"}},
		}
	case LangRuby:
		return map[string]declRule{
			"method":           {KindMethod, []string{"name"}},
			"singleton_method": {KindMethod, []string{"name"}},
			"class":            {KindType, []string{"name"}},
			"module":           {KindType, []string{"name"}},
			"assignment":       {KindVariable, []string{"left"}},
		}
	case LangPHP:
		return map[string]declRule{
			"function_definition": {KindFunction, []string{"name"}},
			"method_declaration":  {KindMethod, []string{"name"}},
			"class_declaration":   {KindType, []string{"name"}},
			"simple_parameter":    {KindParameter, []string{"name"}},
		}
	default:
		return nil
	}
}

// identifierLeafTypes are node types that carry a usable name directly.
var identifierLeafTypes = map[string]bool{
	"identifier":                            true,
	"field_identifier":                      true,
	"type_identifier":                       true,
	"property_identifier":                   true,
	"variable_name":                         true,
	"constant":                              true,
	"shorthand_property_identifier_pattern": true,
}

// Identifiers extracts all declared identifiers from parsed code.
func Identifiers(result *ParseResult) []Identifier {
	rules := declRules(result.Language)
	if len(rules) == 0 {
		return nil
	}

	funcTypes := makeSet(functionNodeTypes(result.Language))

	var idents []Identifier
	var walk func(node *sitter.Node, enclosing string)
	walk = func(node *sitter.Node, enclosing string) {
		nodeType := node.Type()

		if rule, ok := rules[nodeType]; ok {
			for _, field := range rule.nameFields {
				target := node.ChildByFieldName(field)
				if target == nil {
					continue
				}
				for _, name := range resolveNames(target, result.Source) {
					idents = append(idents, Identifier{
						Name:      GetNodeText(name, result.Source),
						Kind:      rule.kind,
						Line:      name.StartPoint().Row + 1,
						Column:    name.StartPoint().Column + 1,
						Exported:  isExported(GetNodeText(name, result.Source), result.Language),
						Enclosing: enclosing,
					})
				}
				break
			}
		}

		next := enclosing
		if funcTypes[nodeType] {
			if name := node.ChildByFieldName("name"); name != nil {
				next = GetNodeText(name, result.Source)
			}
		}

		for i := range int(node.ChildCount()) {
			walk(node.Child(i), next)
		}
	}

	walk(result.Tree.RootNode(), "")
	return idents
}

// resolveNames descends through wrapper nodes (declarator chains, pattern
// lists) until it reaches identifier leaves.
func resolveNames(node *sitter.Node, source []byte) []*sitter.Node {
	if identifierLeafTypes[node.Type()] {
		return []*sitter.Node{node}
	}

	var names []*sitter.Node
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if identifierLeafTypes[child.Type()] {
			names = append(names, child)
			continue
		}
		// One level of nesting covers declarator chains and tuple patterns
		if decl := child.ChildByFieldName("declarator"); decl != nil && identifierLeafTypes[decl.Type()] {
			names = append(names, decl)
		}
	}

	if len(names) == 0 {
		if decl := node.ChildByFieldName("declarator"); decl != nil {
			return resolveNames(decl, source)
		}
	}

	return names
}

// isExported reports whether a name is part of the public surface, using
// the dominant convention for the language.
func isExported(name string, lang Language) bool {
	if name == "" {
		return false
	}
	switch lang {
	case LangGo:
		c := name[0]
		return c >= 'A' && c <= 'Z'
	case LangPython, LangRuby:
		return name[0] != '_'
	default:
		return true
	}
}
