package analyzer

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/tree"
)

// Language describes how one tree-sitter grammar maps onto representation
// kinds.
//
// Named syntax nodes are handled by the first table that lists their type:
//   - Kinds: becomes a representation node of that kind
//   - Flatten: dropped, its children are lifted into the parent
//   - Skip: dropped together with its subtree
//
// Any other named node becomes a [tree.KindOther] node carrying its raw type.
type Language struct {
	Name       string
	Extensions []string

	grammar func() *sitter.Language
	Kinds   map[string]tree.Kind
	Flatten map[string]bool
	Skip    map[string]bool

	// Identifiers lists node types that can hold a declaration name.
	Identifiers map[string]bool
	// Leaves lists kinds whose subtrees are collapsed into the node's text.
	Leaves map[tree.Kind]bool
	// LocalKinds maps a kind to its replacement inside a function body,
	// so a property declared in a function renders as a local variable.
	LocalKinds map[tree.Kind]tree.Kind
}

// Grammar returns the tree-sitter language.
func (l *Language) Grammar() *sitter.Language { return l.grammar() }

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

func kinds(groups map[tree.Kind][]string) map[string]tree.Kind {
	m := make(map[string]tree.Kind)
	for k, types := range groups {
		for _, t := range types {
			m[t] = k
		}
	}
	return m
}

var defaultLeaves = map[tree.Kind]bool{
	tree.KindLiteral:   true,
	tree.KindReference: true,
}

// Kotlin maps the tree-sitter-kotlin grammar.
var Kotlin = &Language{
	Name:       "kotlin",
	Extensions: []string{".kt", ".kts"},
	grammar:    kotlin.GetLanguage,
	Kinds: kinds(map[tree.Kind][]string{
		tree.KindFile:      {"source_file"},
		tree.KindClass:     {"class_declaration", "object_declaration", "companion_object"},
		tree.KindFunction:  {"function_declaration", "secondary_constructor", "anonymous_function", "lambda_literal", "getter", "setter"},
		tree.KindProperty:  {"property_declaration"},
		tree.KindParameter: {"parameter", "class_parameter", "lambda_parameters"},
		tree.KindBlock:     {"function_body", "anonymous_initializer"},
		tree.KindCall:      {"call_expression", "constructor_invocation"},
		tree.KindOperator: {
			"additive_expression", "multiplicative_expression", "comparison_expression",
			"equality_expression", "conjunction_expression", "disjunction_expression",
			"elvis_expression", "range_expression", "infix_expression", "prefix_expression",
			"postfix_expression", "as_expression", "check_expression", "assignment",
			"indexing_expression",
		},
		tree.KindLiteral: {
			"integer_literal", "long_literal", "hex_literal", "bin_literal", "real_literal",
			"unsigned_literal", "boolean_literal", "character_literal", "string_literal",
			"multiline_string_literal", "null_literal",
		},
		tree.KindReference: {"simple_identifier", "navigation_expression", "this_expression", "super_expression", "callable_reference"},
		tree.KindControl:   {"if_expression", "when_expression", "when_entry", "for_statement", "while_statement", "do_while_statement", "jump_expression", "try_expression", "catch_block", "finally_block"},
	}),
	Flatten: set(
		"statements", "block", "class_body", "enum_class_body", "primary_constructor",
		"function_value_parameters", "control_structure_body", "call_suffix", "value_arguments",
		"value_argument", "annotated_lambda", "parenthesized_expression", "when_subject",
		"when_condition", "class_parameters", "interpolated_expression", "enum_entry",
		"delegation_specifiers", "delegation_specifier",
	),
	Skip: set(
		"package_header", "import_list", "import_header", "file_annotation", "shebang_line",
		"modifiers", "annotation", "type_identifier", "user_type", "nullable_type", "function_type",
		"type_arguments", "type_parameters", "type_constraints", "type_reference",
		"variable_declaration", "multi_variable_declaration", "binding_pattern_kind", "line_comment", "multiline_comment",
		"navigation_suffix", "type_alias", "label",
	),
	Identifiers: set("simple_identifier", "type_identifier"),
	Leaves:      defaultLeaves,
	LocalKinds:  map[tree.Kind]tree.Kind{tree.KindProperty: tree.KindVariable},
}

// Go maps the tree-sitter-go grammar.
var Go = &Language{
	Name:       "go",
	Extensions: []string{".go"},
	grammar:    golang.GetLanguage,
	Kinds: kinds(map[tree.Kind][]string{
		tree.KindFile:      {"source_file"},
		tree.KindClass:     {"type_spec"},
		tree.KindFunction:  {"function_declaration", "method_declaration", "func_literal", "method_elem", "method_spec"},
		tree.KindProperty:  {"field_declaration", "var_spec", "const_spec"},
		tree.KindVariable:  {"short_var_declaration", "range_clause"},
		tree.KindParameter: {"parameter_declaration", "variadic_parameter_declaration"},
		tree.KindBlock:     {"block"},
		tree.KindCall:      {"call_expression", "composite_literal"},
		tree.KindOperator:  {"binary_expression", "unary_expression", "assignment_statement", "inc_statement", "dec_statement", "index_expression", "send_statement"},
		tree.KindLiteral: {
			"int_literal", "float_literal", "imaginary_literal", "rune_literal",
			"interpreted_string_literal", "raw_string_literal", "true", "false", "nil", "iota",
		},
		tree.KindReference: {"identifier", "selector_expression", "field_identifier"},
		tree.KindControl: {
			"if_statement", "for_statement", "expression_switch_statement", "type_switch_statement",
			"select_statement", "expression_case", "type_case", "default_case", "communication_case",
			"return_statement", "go_statement", "defer_statement", "break_statement",
			"continue_statement", "goto_statement",
		},
	}),
	Flatten: set(
		"type_declaration", "var_declaration", "const_declaration", "struct_type", "interface_type",
		"field_declaration_list", "parameter_list", "argument_list", "expression_list",
		"expression_statement", "parenthesized_expression", "literal_value", "keyed_element",
		"literal_element", "for_clause", "labeled_statement", "var_spec_list",
	),
	Skip: set(
		"package_clause", "import_declaration", "comment", "type_identifier", "pointer_type",
		"qualified_type", "slice_type", "array_type", "map_type", "channel_type", "function_type",
		"generic_type", "type_parameter_list", "type_arguments", "package_identifier",
		"field_identifier_list", "escape_sequence", "label_name", "type_alias",
	),
	Identifiers: set("identifier", "field_identifier", "type_identifier"),
	Leaves:      defaultLeaves,
	LocalKinds:  map[tree.Kind]tree.Kind{tree.KindProperty: tree.KindVariable},
}

var registry = map[string]*Language{
	Kotlin.Name: Kotlin,
	Go.Name:     Go,
}

var aliases = map[string]string{
	"kt":     Kotlin.Name,
	"kts":    Kotlin.Name,
	"golang": Go.Name,
}

// Lookup returns the language registered under name or one of its aliases.
func Lookup(name string) (*Language, error) {
	if err := errors.ValidateLanguageName(name); err != nil {
		return nil, err
	}
	key := strings.ToLower(name)
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	lang, ok := registry[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidLanguage, "unsupported language: %s (supported: %s)",
			name, strings.Join(Names(), ", "))
	}
	return lang, nil
}

// Detect returns the language for a file path by extension.
func Detect(path string) (*Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, name := range Names() {
		lang := registry[name]
		for _, e := range lang.Extensions {
			if e == ext {
				return lang, true
			}
		}
	}
	return nil, false
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
