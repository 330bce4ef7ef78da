// Package parse extracts class and enum declarations from C++ headers
// using tree-sitter.
package parse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/hpp2puml/internal/lang"
	"github.com/phobologic/hpp2puml/internal/model"
)

// Mode tells Parse how to interpret its input argument.
type Mode int

const (
	// FromString treats the input as header source text.
	FromString Mode = iota
	// FromFile treats the input as a path to a header file.
	FromFile
)

// ErrSyntax is returned in strict mode when the syntax tree contains errors.
var ErrSyntax = errors.Base("syntax error")

var (
	deletedRe = regexp.MustCompile(`=\s*(delete|default)\s*;?\s*$`)
	pureRe    = regexp.MustCompile(`=\s*0\s*;?\s*$`)
)

var classKinds = map[string]model.Kind{
	"class_specifier":  model.KindClass,
	"struct_specifier": model.KindStruct,
	"union_specifier":  model.KindUnion,
}

// Parser turns C++ source into a Header. A Parser owns a tree-sitter parser
// and must not be shared between goroutines.
type Parser struct {
	parser *sitter.Parser
	strict bool
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes syntax errors fatal instead of logged.
func WithStrict(strict bool) Option {
	return func(p *Parser) { p.strict = strict }
}

// WithLogger sets the logger used for recovered syntax errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// New creates a Parser for C++ headers.
func New(opts ...Option) *Parser {
	p := &Parser{
		parser: lang.Languages[lang.CPP].NewParser(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse reads a header from a file path or from source text depending on
// mode.
func (p *Parser) Parse(ctx context.Context, input string, mode Mode) (*Header, error) {
	switch mode {
	case FromFile:
		source, err := os.ReadFile(input)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", input, err)
		}
		return p.ParseSource(ctx, source, input)
	case FromString:
		return p.ParseSource(ctx, []byte(input), "<string>")
	default:
		return nil, errors.Errorf("unknown parse mode %d", mode)
	}
}

// ParseSource parses header source. name is used in errors and logs only.
func (p *Parser) ParseSource(ctx context.Context, source []byte, name string) (*Header, error) {
	h := &Header{Name: name}
	if len(source) == 0 {
		return h, nil
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := errorLine(root)
		if p.strict {
			return nil, errors.Errorf("%s:%d: %w", name, line, ErrSyntax)
		}
		p.logger.Warn("recovered from syntax error", "input", name, "line", line)
	}

	w := &walker{source: source, header: h, anon: make(map[string]int)}
	w.items(root, scope{})
	return h, nil
}

// errorLine returns the 1-based line of the first ERROR or MISSING node.
func errorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return errorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

type scope struct {
	namespace []string
	// parent is the name of the enclosing class.
	parent string
}

func (s scope) enter(namespace string) scope {
	ns := make([]string, 0, len(s.namespace)+1)
	ns = append(ns, s.namespace...)
	for _, part := range strings.Split(namespace, "::") {
		if part = strings.TrimSpace(part); part != "" {
			ns = append(ns, part)
		}
	}
	return scope{namespace: ns, parent: s.parent}
}

type walker struct {
	source []byte
	header *Header
	anon   map[string]int
}

func (w *walker) text(n *sitter.Node) string {
	return lang.NodeText(n, w.source)
}

func (w *walker) anonName(kind string) string {
	w.anon[kind]++
	return fmt.Sprintf("anon_%s_%d", kind, w.anon[kind])
}

// items visits the declarations of a translation unit or namespace body.
func (w *walker) items(n *sitter.Node, sc scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.item(n.NamedChild(i), sc)
	}
}

func (w *walker) item(n *sitter.Node, sc scope) {
	switch n.Type() {
	case "namespace_definition":
		inner := sc
		if name := n.ChildByFieldName("name"); name != nil {
			inner = sc.enter(w.text(name))
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.items(body, inner)
		}
	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				w.items(body, sc)
			} else {
				w.item(body, sc)
			}
		}
	case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
		w.items(n, sc)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		w.specifier(n, sc, "", "")
	case "template_declaration":
		tmpl := w.templateText(n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "class_specifier", "struct_specifier", "union_specifier":
				w.specifier(c, sc, tmpl, "")
			case "declaration":
				if t := c.ChildByFieldName("type"); t != nil {
					w.specifier(t, sc, tmpl, "")
				}
			}
		}
	case "declaration":
		if t := n.ChildByFieldName("type"); t != nil {
			w.specifier(t, sc, "", "")
		}
	case "type_definition":
		if t := n.ChildByFieldName("type"); t != nil {
			w.specifier(t, sc, "", w.typedefName(n))
		}
	}
}

func (w *walker) templateText(n *sitter.Node) string {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	return "template " + lang.CollapseWhitespace(w.text(params))
}

func (w *walker) typedefName(n *sitter.Node) string {
	if d := n.ChildByFieldName("declarator"); d != nil && d.Type() == "type_identifier" {
		return w.text(d)
	}
	return ""
}

// specifier records a class or enum declaration that has a body and returns
// its name. Forward declarations and plain type references return "".
func (w *walker) specifier(n *sitter.Node, sc scope, tmpl, fallback string) string {
	if n.Type() == "enum_specifier" {
		return w.enum(n, sc, fallback)
	}
	if _, ok := classKinds[n.Type()]; ok {
		return w.class(n, sc, tmpl, fallback)
	}
	return ""
}

func (w *walker) class(n *sitter.Node, sc scope, tmpl, fallback string) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	kind := classKinds[n.Type()]

	var name string
	if nn := n.ChildByFieldName("name"); nn != nil {
		name = lang.CollapseWhitespace(w.text(nn))
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = w.anonName(string(kind))
	}
	if sc.parent != "" {
		name = sc.parent + "::" + name
	}

	decl := &ClassDecl{
		Name:      name,
		Kind:      kind,
		Namespace: strings.Join(sc.namespace, "::"),
		Parent:    sc.parent,
		Template:  tmpl,
		Bases:     w.bases(n),
	}
	w.header.Classes = append(w.header.Classes, decl)

	access := model.Private
	if kind != model.KindClass {
		access = model.Public
	}
	inner := scope{namespace: sc.namespace, parent: name}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		w.member(body.NamedChild(i), decl, &access, inner, "")
	}
	return name
}

func (w *walker) bases(n *sitter.Node) []string {
	var bases []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		clause := n.NamedChild(i)
		if clause.Type() != "base_class_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			b := clause.NamedChild(j)
			switch b.Type() {
			case "access_specifier", "virtual", "virtual_specifier", "comment":
				continue
			}
			bases = append(bases, lang.CollapseWhitespace(w.text(b)))
		}
	}
	return bases
}

func (w *walker) enum(n *sitter.Node, sc scope, fallback string) string {
	body := n.ChildByFieldName("body")
	if body == nil {
		return ""
	}

	var name string
	if nn := n.ChildByFieldName("name"); nn != nil {
		name = lang.CollapseWhitespace(w.text(nn))
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		if sc.parent == "" {
			name = "empty"
		} else {
			name = w.anonName("enum")
		}
	}
	if sc.parent != "" {
		name = sc.parent + "::" + name
	}

	decl := &EnumDecl{
		Name:      name,
		Namespace: strings.Join(sc.namespace, "::"),
		Parent:    sc.parent,
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		if nn := e.ChildByFieldName("name"); nn != nil {
			decl.Values = append(decl.Values, w.text(nn))
		}
	}
	w.header.Enums = append(w.header.Enums, decl)
	return name
}

// member visits one item of a class body. access is updated in place by
// access specifiers.
func (w *walker) member(n *sitter.Node, decl *ClassDecl, access *model.Visibility, sc scope, tmpl string) {
	switch n.Type() {
	case "access_specifier":
		switch v := model.Visibility(strings.TrimSpace(w.text(n))); v {
		case model.Public, model.Private, model.Protected:
			*access = v
		}
	case "field_declaration", "declaration", "function_definition":
		w.field(n, decl, *access, sc)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		w.specifier(n, sc, tmpl, "")
	case "template_declaration":
		inner := w.templateText(n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() != "template_parameter_list" {
				w.member(c, decl, access, sc, inner)
			}
		}
	case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.member(n.NamedChild(i), decl, access, sc, tmpl)
		}
	}
}

var declaratorTypes = map[string]bool{
	"field_identifier":         true,
	"identifier":               true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"function_declarator":      true,
	"parenthesized_declarator": true,
	"init_declarator":          true,
	"destructor_name":          true,
	"operator_name":            true,
	"qualified_identifier":     true,
	"operator_cast":            true,
}

// field turns a member declaration into variables and methods.
func (w *walker) field(n *sitter.Node, decl *ClassDecl, access model.Visibility, sc scope) {
	typeNode := n.ChildByFieldName("type")
	defaultNode := n.ChildByFieldName("default_value")

	var baseType string
	if typeNode != nil {
		baseType = w.specifier(typeNode, sc, "", "")
		if baseType == "" {
			baseType = lang.CollapseWhitespace(w.text(typeNode))
		}
	}

	var static bool
	var quals []string
	var declarators []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if typeNode != nil && c.StartByte() == typeNode.StartByte() {
			continue
		}
		if defaultNode != nil && c.StartByte() == defaultNode.StartByte() {
			continue
		}
		switch {
		case c.Type() == "storage_class_specifier":
			if w.text(c) == "static" {
				static = true
			}
		case c.Type() == "type_qualifier":
			quals = append(quals, w.text(c))
		case declaratorTypes[c.Type()]:
			declarators = append(declarators, c)
		}
	}
	if len(quals) > 0 && baseType != "" {
		baseType = strings.Join(quals, " ") + " " + baseType
	}

	text := w.text(n)
	var deleted, pure bool
	if n.Type() == "function_definition" {
		// A body may itself contain "= 0", so only the clause node counts.
		pure = hasNamedChild(n, "pure_virtual_clause")
		deleted = hasNamedChild(n, "delete_method_clause") || hasNamedChild(n, "default_method_clause") ||
			deletedRe.MatchString(text)
	} else {
		pure = (defaultNode != nil && w.text(defaultNode) == "0") || pureRe.MatchString(text)
		deleted = deletedRe.MatchString(text)
	}

	for _, d := range declarators {
		if d.Type() == "operator_cast" {
			decl.Methods = append(decl.Methods, w.castOperator(d, access, deleted, pure))
			continue
		}

		info := w.unwrap(d)
		if info.name == "" {
			continue
		}

		if info.fn == nil || info.fnPointer {
			typ := baseType + info.suffix
			if info.fnPointer {
				if params := info.fn.ChildByFieldName("parameters"); params != nil {
					typ += "(*)" + lang.CollapseWhitespace(w.text(params))
				}
			}
			decl.Variables = append(decl.Variables, VariableDecl{
				Name:       info.name,
				Visibility: access,
				Static:     static,
				Type:       typ,
				Array:      info.array,
			})
			continue
		}

		m := MethodDecl{
			Name:        info.name,
			Visibility:  access,
			Static:      static,
			PureVirtual: pure,
			Deleted:     deleted,
			Const:       w.isConst(info.fn),
			Params:      w.params(info.fn),
		}
		if strings.HasPrefix(m.Name, "~") {
			m.Destructor = true
			m.Name = strings.TrimSpace(strings.TrimPrefix(m.Name, "~"))
		}
		if typeNode != nil {
			ret := baseType + info.suffix
			switch {
			case strings.HasSuffix(info.suffix, "&"):
				m.ReturnsReference = true
				ret = strings.TrimSuffix(ret, "&")
			case strings.HasSuffix(info.suffix, "*"):
				m.ReturnsPointer = true
				ret = strings.TrimSuffix(ret, "*")
			}
			m.Returns = ret
		}
		decl.Methods = append(decl.Methods, m)
	}
}

func (w *walker) castOperator(n *sitter.Node, access model.Visibility, deleted, pure bool) MethodDecl {
	m := MethodDecl{
		Name:        "operator",
		Visibility:  access,
		PureVirtual: pure,
		Deleted:     deleted,
	}
	if t := n.ChildByFieldName("type"); t != nil {
		m.Name += " " + lang.CollapseWhitespace(w.text(t))
	}
	if fn := n.ChildByFieldName("declarator"); fn != nil {
		m.Const = w.isConst(fn)
		m.Params = w.params(fn)
	}
	return m
}

type declInfo struct {
	name string
	// suffix holds the pointer and reference tokens applied to the base
	// type, outermost first.
	suffix    string
	array     bool
	fn        *sitter.Node
	fnPointer bool
}

// unwrap walks a declarator chain down to the declared name.
func (w *walker) unwrap(d *sitter.Node) declInfo {
	var info declInfo
	for d != nil {
		switch d.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			if info.fn == nil {
				info.suffix += "*"
			} else {
				info.fnPointer = true
			}
			d = d.ChildByFieldName("declarator")
		case "reference_declarator", "abstract_reference_declarator":
			if info.fn == nil {
				if strings.HasPrefix(w.text(d), "&&") {
					info.suffix += "&&"
				} else {
					info.suffix += "&"
				}
			}
			d = firstNamed(d)
		case "array_declarator", "abstract_array_declarator":
			info.array = true
			d = d.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			if info.fn == nil {
				info.fn = d
			}
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "abstract_parenthesized_declarator":
			d = firstNamed(d)
		case "init_declarator":
			d = d.ChildByFieldName("declarator")
		case "type_qualifier", "comment":
			d = nil
		default:
			info.name = lang.CollapseWhitespace(w.text(d))
			d = nil
		}
	}
	return info
}

func hasNamedChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == typ {
			return true
		}
	}
	return false
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "type_qualifier" && c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func (w *walker) isConst(fn *sitter.Node) bool {
	for i := 0; i < int(fn.NamedChildCount()); i++ {
		c := fn.NamedChild(i)
		if c.Type() == "type_qualifier" && w.text(c) == "const" {
			return true
		}
	}
	return false
}

func (w *walker) params(fn *sitter.Node) []ParamDecl {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}

	var params []ParamDecl
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			var quals []string
			for j := 0; j < int(p.NamedChildCount()); j++ {
				if c := p.NamedChild(j); c.Type() == "type_qualifier" {
					quals = append(quals, w.text(c))
				}
			}
			typ := ""
			if t := p.ChildByFieldName("type"); t != nil {
				typ = lang.CollapseWhitespace(w.text(t))
			}
			if len(quals) > 0 {
				typ = strings.Join(quals, " ") + " " + typ
			}
			var info declInfo
			if d := p.ChildByFieldName("declarator"); d != nil {
				info = w.unwrap(d)
			}
			typ += info.suffix
			if info.array {
				typ += "[]"
			}
			params = append(params, ParamDecl{Type: typ, Name: info.name})
		case "variadic_parameter_declaration":
			params = append(params, ParamDecl{Type: lang.CollapseWhitespace(w.text(p))})
		}
	}
	return params
}
