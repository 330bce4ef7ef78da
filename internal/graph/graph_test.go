package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/hpp2puml/internal/model"
)

func class(name, ns string, vars ...string) *model.Class {
	c := &model.Class{Container: model.Container{Kind: model.KindClass, Name: name, Namespace: ns}}
	for i, typ := range vars {
		c.Members = append(c.Members, &model.Variable{
			Name:       string(rune('a' + i)),
			Visibility: model.Private,
			Type:       typ,
		})
	}
	return c
}

func withBases(c *model.Class, bases ...string) *model.Class {
	c.Bases = bases
	return c
}

func withMethod(c *model.Class, params ...string) *model.Class {
	m := &model.Method{Name: "M", Visibility: model.Public, ReturnType: "void"}
	for _, p := range params {
		m.Params = append(m.Params, model.Param{Type: p, Name: "x"})
	}
	c.Members = append(c.Members, m)
	return c
}

func rendered(rels []model.Relationship) []string {
	var out []string
	for _, r := range rels {
		out = append(out, r.Render(false))
	}
	return out
}

func TestInheritance(t *testing.T) {
	t.Parallel()

	entities := []model.Entity{
		class("Base", ""),
		withBases(class("Child", ""), "Base"),
		withBases(class("Generic", ""), "Base<int>", "Unknown"),
	}
	assert.Equal(t, []string{"Base <|-- Child", "Base <|-- Generic"}, rendered(Inheritance(entities)))
}

func TestInheritanceResolvesNamespaces(t *testing.T) {
	t.Parallel()

	aBase := class("Base", "a")
	bBase := class("Base", "b")
	inA := withBases(class("Derived", "a"), "Base")
	qualified := withBases(class("Other", ""), "b::Base")
	rootOnly := withBases(class("Root", "c"), "Base")

	rels := Inheritance([]model.Entity{aBase, bBase, inA, qualified, rootOnly})
	require.Len(t, rels, 3)

	assert.Equal(t, "a", rels[0].Left.Namespace, "same namespace wins")
	assert.Equal(t, "b", rels[1].Left.Namespace, "qualifier wins")
	assert.Equal(t, "a", rels[2].Left.Namespace, "falls back to first candidate")
}

func TestContainment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars []string
		want []string
	}{
		{"single pointer", []string{"B*"}, []string{"A o-- B"}},
		{"two pointers", []string{"B*", "B*"}, []string{`A "2" o-- B`}},
		{"value", []string{"B"}, []string{"A *-- B"}},
		{"reference", []string{"B&"}, []string{"A *-- B"}},
		{"container", []string{"std::vector<B*>"}, []string{"A o-- B"}},
		{"wrapped value", []string{"std::list<B>", "std::list<B>", "std::list<B>"}, []string{`A "3" *-- B`}},
		{"mixed kinds", []string{"B", "B*"}, []string{"A *-- B", "A o-- B"}},
		{"unknown type", []string{"int", "std::string"}, nil},
		{"longer identifier", []string{"BClass"}, nil},
		{"qualified member", []string{"B::Inner"}, []string{"A *-- B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entities := []model.Entity{class("A", "", tt.vars...), class("B", "")}
			assert.Equal(t, tt.want, rendered(Containment(entities)))
		})
	}
}

func TestContainmentIgnoresSelfAndEnums(t *testing.T) {
	t.Parallel()

	node := class("Node", "", "Node*", "Color")
	color := &model.Enum{Container: model.Container{Kind: model.KindEnum, Name: "Color"}}

	assert.Empty(t, Containment([]model.Entity{node, color}))
}

func TestNesting(t *testing.T) {
	t.Parallel()

	outer := class("Outer", "ns")
	inner := class("Outer::Inner", "")
	inner.Parent = "Outer"
	mode := &model.Enum{Container: model.Container{Kind: model.KindEnum, Name: "Outer::Mode", Parent: "Outer"}}
	orphan := class("Lost::Child", "")
	orphan.Parent = "Lost"

	rels := Nesting([]model.Entity{outer, inner, mode, orphan})
	assert.Equal(t, []string{"Outer +-- Outer::Inner", "Outer +-- Outer::Mode"}, rendered(rels))
	assert.Equal(t, "ns", rels[0].Left.Namespace)
}

func TestDependency(t *testing.T) {
	t.Parallel()

	a := class("A", "")
	b := withMethod(class("B", ""), "A*")

	assert.Equal(t, []string{"A <.. B"}, rendered(Dependency([]model.Entity{a, b})))
	assert.Empty(t, Build([]model.Entity{a, b}, false).Dependency)
	assert.Len(t, Build([]model.Entity{a, b}, true).Dependency, 1)
}

func TestDependencySubstringMatch(t *testing.T) {
	t.Parallel()

	// Dependency matching is a plain substring test, so "BClass" matches B.
	b := class("B", "")
	user := withMethod(class("User", ""), "const BClass&")
	assert.Equal(t, []string{"B <.. User"}, rendered(Dependency([]model.Entity{b, user})))
}

func TestDependencyPerParameter(t *testing.T) {
	t.Parallel()

	a := class("A", "")
	b := withMethod(withMethod(class("B", ""), "A&", "B*"), "const A*")
	color := &model.Enum{Container: model.Container{Kind: model.KindEnum, Name: "Color"}}
	withMethod(b, "Color")

	assert.Equal(t, []string{"A <.. B", "A <.. B", "Color <.. B"}, rendered(Dependency([]model.Entity{a, b, color})))

	single := withMethod(class("S", ""), "A*", "A")
	assert.Equal(t, []string{"A <.. S", "A <.. S"}, rendered(Dependency([]model.Entity{a, single})))
}

func TestDependencyFirstMatchOnly(t *testing.T) {
	t.Parallel()

	// "BoxA" contains both A and Box; only the first entity in canonical
	// order produces an edge.
	a := class("A", "")
	box := class("Box", "")
	user := withMethod(class("User", ""), "BoxA")
	assert.Equal(t, []string{"A <.. User"}, rendered(Dependency([]model.Entity{user, box, a})))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	base := class("Base", "")
	child := withBases(class("Child", "", "Base*"), "Base")

	rels := Build([]model.Entity{base, child}, false)
	assert.Equal(t, []string{"Base <|-- Child"}, rendered(rels.Inheritance))
	assert.Equal(t, []string{"Child o-- Base"}, rendered(rels.Aggregation))
	assert.Empty(t, rels.Nesting)
	assert.Empty(t, rels.Dependency)
}
