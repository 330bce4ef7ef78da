// Package model defines the diagram object model for hpp2puml: entities
// (classes and enums), their members, and the relationships between them.
package model

import (
	"strings"
)

// Kind is the declaration kind of an entity.
type Kind string

const (
	KindClass  Kind = "class"
	KindStruct Kind = "struct"
	KindUnion  Kind = "union"
	KindEnum   Kind = "enum"
)

// Entity is a rendered declaration. The set of implementations is closed:
// *Class and *Enum.
type Entity interface {
	// Base returns the fields shared by every entity kind.
	Base() *Container
	// Render returns the PlantUML block for the entity.
	Render() string
}

// Container holds the fields shared by classes and enums.
type Container struct {
	Kind Kind
	Name string
	// Namespace is the enclosing namespace path ("a::b"), empty at file
	// scope and for types nested inside another entity.
	Namespace string
	// Parent is the name of the enclosing entity for nested types.
	Parent  string
	Members []Member
}

// Base implements Entity.
func (c *Container) Base() *Container { return c }

// QualifiedName returns the name prefixed with the namespace, if any.
func (c *Container) QualifiedName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "::" + c.Name
}

func (c *Container) render(def string) string {
	var b strings.Builder
	b.WriteString(def)
	b.WriteString(" {\n")
	for _, m := range c.Members {
		b.WriteString("\t")
		b.WriteString(m.Render())
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// Class is a class, struct or union declaration.
type Class struct {
	Container
	Abstract bool
	// Template is the single-line template parameter declaration, e.g.
	// "template <typename T>".
	Template string
	// Bases lists parent names with template arguments stripped.
	Bases []string
}

// Render implements Entity. Structs and unions are drawn as classes.
func (c *Class) Render() string {
	kind := c.Kind
	if kind == KindStruct || kind == KindUnion {
		kind = KindClass
	}
	def := string(kind) + " " + c.Name
	if c.Abstract {
		def = "abstract " + def
	}
	if c.Template != "" {
		def += " <" + c.Template + ">"
	}
	return c.render(def)
}

// VariableTypes returns the cleaned type of every member variable in
// member order.
func (c *Class) VariableTypes() []string {
	var types []string
	for _, m := range c.Members {
		if v, ok := m.(*Variable); ok {
			types = append(types, v.Type)
		}
	}
	return types
}

// Methods returns the member methods in member order.
func (c *Class) Methods() []*Method {
	var methods []*Method
	for _, m := range c.Members {
		if fn, ok := m.(*Method); ok {
			methods = append(methods, fn)
		}
	}
	return methods
}

// Enum is an enumeration. Members are *EnumValue.
type Enum struct {
	Container
}

// Render implements Entity.
func (e *Enum) Render() string {
	return e.render(string(KindEnum) + " " + e.Name)
}

// IsClass reports whether e is a class-like entity.
func IsClass(e Entity) bool {
	_, ok := e.(*Class)
	return ok
}
