// Package puml renders entities and relationships as a PlantUML document
// through a block-structured text/template.
package puml

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/hpp2puml/internal/model"
)

//go:embed templates/default.puml.tmpl
var defaultTemplate string

// ErrTemplate wraps template parse and execution failures.
var ErrTemplate = errors.Base("template error")

// rootTemplate is the template executed to produce the document.
const rootTemplate = "diagram"

// Document is everything a diagram renders. Entities and relationship
// lists are rendered in the order given.
type Document struct {
	Entities         []model.Entity
	Inheritance      []model.Relationship
	Aggregation      []model.Relationship
	Nesting          []model.Relationship
	Dependency       []model.Relationship
	WithDependencies bool
}

// Renderer executes the diagram template.
type Renderer struct {
	tmpl *template.Template
}

// New returns a Renderer using the built-in template.
func New() (*Renderer, error) {
	tmpl, err := template.New("default").Parse(defaultTemplate)
	if err != nil {
		return nil, errors.Errorf("%w: parsing default template: %s", ErrTemplate, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// NewFromFile returns a Renderer whose blocks can be overridden by the
// template in path. Blocks the file does not define keep their built-in
// behaviour. An empty path is the same as New.
func NewFromFile(path string) (*Renderer, error) {
	if path == "" {
		return New()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("%w: reading %s: %s", ErrTemplate, path, err)
	}
	return NewFromString(filepath.Base(path), string(content))
}

// NewFromString is NewFromFile for template text already in memory.
func NewFromString(name, override string) (*Renderer, error) {
	r, err := New()
	if err != nil {
		return nil, err
	}
	if _, err := r.tmpl.New(name).Parse(override); err != nil {
		return nil, errors.Errorf("%w: parsing %s: %s", ErrTemplate, name, err)
	}
	return r, nil
}

// Render writes the document to w. Nothing is written if execution fails.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, rootTemplate, newData(doc)); err != nil {
		return errors.Errorf("%w: %s", ErrTemplate, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf("writing diagram: %w", err)
	}
	return nil
}

// RenderString renders the document to a string.
func (r *Renderer) RenderString(doc Document) (string, error) {
	var b strings.Builder
	if err := r.Render(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

// item is anything the template can draw.
type item interface {
	Render() string
}

// data is the value the template is executed with.
type data struct {
	Objects         []item
	InheritanceList []item
	AggregationList []item
	NestingList     []item
	DependencyList  []item
	FlagDep         bool
}

func newData(doc Document) data {
	qualify := false
	for _, e := range doc.Entities {
		if e.Base().Namespace != "" {
			qualify = true
			break
		}
	}
	return data{
		Objects:         objects(doc.Entities),
		InheritanceList: links(doc.Inheritance, qualify),
		AggregationList: links(doc.Aggregation, qualify),
		NestingList:     links(doc.Nesting, qualify),
		DependencyList:  links(doc.Dependency, qualify),
		FlagDep:         doc.WithDependencies,
	}
}

// namespace is one namespace block of the objects section.
type namespace struct {
	name     string
	entities []model.Entity
	children map[string]*namespace
}

func newNamespace(name string) *namespace {
	return &namespace{name: name, children: make(map[string]*namespace)}
}

func (n *namespace) child(name string) *namespace {
	c, ok := n.children[name]
	if !ok {
		c = newNamespace(name)
		n.children[name] = c
	}
	return c
}

func (n *namespace) sortedChildren() []*namespace {
	children := make([]*namespace, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].name < children[j].name
	})
	return children
}

// Render draws the entities of the namespace first, then its child
// namespaces, all indented one level.
func (n *namespace) Render() string {
	var parts []string
	for _, e := range n.entities {
		parts = append(parts, e.Render())
	}
	for _, c := range n.sortedChildren() {
		parts = append(parts, c.Render())
	}
	return wrap(n.name, strings.Join(parts, "\n\n"))
}

// objects lists entities without a namespace followed by one block per
// top-level namespace.
func objects(entities []model.Entity) []item {
	root := newNamespace("")
	var items []item
	for _, e := range entities {
		ns := e.Base().Namespace
		if ns == "" {
			items = append(items, e)
			continue
		}
		n := root
		for _, part := range strings.Split(ns, "::") {
			n = n.child(part)
		}
		n.entities = append(n.entities, e)
	}
	for _, c := range root.sortedChildren() {
		items = append(items, c)
	}
	return items
}

// link is a relationship line. A relationship whose endpoints share a
// namespace is wrapped in that namespace and uses bare names.
type link struct {
	rel     model.Relationship
	qualify bool
}

func (l link) Render() string {
	ns := l.rel.SharedNamespace()
	if ns == "" {
		return l.rel.Render(l.qualify)
	}
	line := l.rel.Render(false)
	parts := strings.Split(ns, "::")
	for i := len(parts) - 1; i >= 0; i-- {
		line = wrap(parts[i], line)
	}
	return line
}

func links(rels []model.Relationship, qualify bool) []item {
	items := make([]item, 0, len(rels))
	for _, r := range rels {
		items = append(items, link{rel: r, qualify: qualify})
	}
	return items
}

func wrap(name, body string) string {
	return "namespace " + name + " {\n" + indent(body) + "\n}"
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "\t" + line
		}
	}
	return strings.Join(lines, "\n")
}
