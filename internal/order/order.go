// Package order puts entities, members and relationships into the canonical
// order used for rendering, so identical input always renders identically.
package order

import (
	"sort"

	"github.com/phobologic/hpp2puml/internal/model"
)

// Entities sorts entities by (kind, name, namespace) and sorts the members
// of each entity.
func Entities(entities []model.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return EntityLess(entities[i], entities[j])
	})
	for _, e := range entities {
		Members(e)
	}
}

// EntityLess reports whether a sorts before b.
func EntityLess(a, b model.Entity) bool {
	ca, cb := a.Base(), b.Base()
	if ca.Kind != cb.Kind {
		return ca.Kind < cb.Kind
	}
	if ca.Name != cb.Name {
		return ca.Name < cb.Name
	}
	return ca.Namespace < cb.Namespace
}

// Members sorts the members of a class by (visibility, name), using the
// rendered line to break ties between overloads. Enum values keep their
// declaration order.
func Members(e model.Entity) {
	if _, ok := e.(*model.Enum); ok {
		return
	}
	members := e.Base().Members
	sort.SliceStable(members, func(i, j int) bool {
		ti, ni := members[i].SortKey()
		tj, nj := members[j].SortKey()
		if ti != tj {
			return ti < tj
		}
		if ni != nj {
			return ni < nj
		}
		return members[i].Render() < members[j].Render()
	})
}

// Relationships sorts relationships by (left name, right name, kind). The
// endpoint namespaces and the count break any remaining ties.
func Relationships(rels []model.Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		if a.Left.Name != b.Left.Name {
			return a.Left.Name < b.Left.Name
		}
		if a.Right.Name != b.Right.Name {
			return a.Right.Name < b.Right.Name
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Left.Namespace != b.Left.Namespace {
			return a.Left.Namespace < b.Left.Namespace
		}
		if a.Right.Namespace != b.Right.Namespace {
			return a.Right.Namespace < b.Right.Namespace
		}
		return a.Count < b.Count
	})
}
