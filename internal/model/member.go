package model

import (
	"strings"
)

// Visibility is the access level of a class member.
type Visibility string

const (
	Private   Visibility = "private"
	Public    Visibility = "public"
	Protected Visibility = "protected"
)

// Visibilities lists the access levels in the order members are collected.
var Visibilities = []Visibility{Private, Public, Protected}

var visibilitySymbols = map[Visibility]string{
	Private:   "-",
	Public:    "+",
	Protected: "#",
}

// Symbol returns the PlantUML visibility marker.
func (v Visibility) Symbol() string {
	return visibilitySymbols[v]
}

// Member is one line of an entity block. The set of implementations is
// closed: *Variable, *Method and *EnumValue.
type Member interface {
	// SortKey returns the (tag, name) pair members are ordered by. The tag
	// is empty for members without a visibility.
	SortKey() (tag, name string)
	Render() string
}

// Variable is a member variable.
type Variable struct {
	Name       string
	Visibility Visibility
	Static     bool
	Type       string
}

// SortKey implements Member.
func (v *Variable) SortKey() (string, string) { return string(v.Visibility), v.Name }

// Render implements Member.
func (v *Variable) Render() string {
	return renderMember(v.Visibility, v.Static, v.Name, v.Type, nil)
}

// Param is a method parameter.
type Param struct {
	Type string
	Name string
}

// Method is a member function.
type Method struct {
	// Name carries the "~" prefix for destructors.
	Name       string
	Visibility Visibility
	Static     bool
	Abstract   bool
	Const      bool
	Destructor bool
	// ReturnType is empty for constructors and destructors.
	ReturnType string
	Params     []Param
}

// SortKey implements Member.
func (m *Method) SortKey() (string, string) { return string(m.Visibility), m.Name }

// Render implements Member.
func (m *Method) Render() string {
	var b strings.Builder
	if m.Abstract {
		b.WriteString("{abstract} ")
	}
	b.WriteString(m.Name)
	b.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strings.TrimSpace(p.Type + " " + p.Name))
	}
	b.WriteString(")")

	var props []string
	if m.Const {
		props = append(props, "query")
	}
	return renderMember(m.Visibility, m.Static, b.String(), m.ReturnType, props)
}

func renderMember(vis Visibility, static bool, name, typ string, props []string) string {
	var b strings.Builder
	b.WriteString(vis.Symbol())
	if static {
		b.WriteString("{static} ")
	}
	b.WriteString(name)
	if typ != "" {
		b.WriteString(" : ")
		b.WriteString(typ)
	}
	if len(props) > 0 {
		b.WriteString(" {")
		b.WriteString(strings.Join(props, ", "))
		b.WriteString("}")
	}
	return b.String()
}

// EnumValue is an enumerator. Only the name is kept.
type EnumValue struct {
	Name string
}

// SortKey implements Member.
func (e *EnumValue) SortKey() (string, string) { return "", e.Name }

// Render implements Member.
func (e *EnumValue) Render() string { return e.Name }
