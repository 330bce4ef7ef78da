// Package graph infers relationships between diagram entities from their
// declared bases, member types and method signatures.
package graph

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/phobologic/hpp2puml/internal/model"
	"github.com/phobologic/hpp2puml/internal/order"
)

// Relationships holds the inferred relationship lists, one per diagram
// section. Aggregation holds both aggregation and composition edges.
type Relationships struct {
	Inheritance []model.Relationship
	Aggregation []model.Relationship
	Nesting     []model.Relationship
	Dependency  []model.Relationship
}

// Build runs every inference pass over entities. Dependency edges are only
// computed when withDependencies is set. Entities are visited in canonical
// order whatever order they are passed in, so ties in name resolution and
// the first dependency match per parameter do not depend on input order.
func Build(entities []model.Entity, withDependencies bool) Relationships {
	idx := newIndex(entities)
	rels := Relationships{
		Inheritance: idx.inheritance(),
		Aggregation: idx.containment(),
		Nesting:     idx.nesting(),
	}
	if withDependencies {
		rels.Dependency = idx.dependency()
	}
	return rels
}

// Inheritance returns one base → derived edge per resolvable base class.
func Inheritance(entities []model.Entity) []model.Relationship {
	return newIndex(entities).inheritance()
}

// Containment returns aggregation and composition edges from member
// variable types.
func Containment(entities []model.Entity) []model.Relationship {
	return newIndex(entities).containment()
}

// Nesting returns enclosing → nested edges.
func Nesting(entities []model.Entity) []model.Relationship {
	return newIndex(entities).nesting()
}

// Dependency returns one parameter type → declaring class edge per
// parameter whose type names another entity.
func Dependency(entities []model.Entity) []model.Relationship {
	return newIndex(entities).dependency()
}

type index struct {
	entities []model.Entity
	classes  []*model.Class
	// byName maps an entity name to every entity carrying it, in canonical
	// order.
	byName map[string][]model.Entity
	words  map[string]*regexp.Regexp
}

func newIndex(entities []model.Entity) *index {
	sorted := slices.Clone(entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return order.EntityLess(sorted[i], sorted[j])
	})

	idx := &index{
		entities: sorted,
		byName:   make(map[string][]model.Entity),
		words:    make(map[string]*regexp.Regexp),
	}
	for _, e := range sorted {
		name := e.Base().Name
		idx.byName[name] = append(idx.byName[name], e)
		if c, ok := e.(*model.Class); ok {
			idx.classes = append(idx.classes, c)
			if _, seen := idx.words[name]; !seen {
				idx.words[name] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
			}
		}
	}
	return idx
}

// resolve finds the entity a type reference made from inside from points
// to. A "NS::Name" qualifier is honoured when an entity in that namespace
// exists. Otherwise candidates in from's namespace and its ancestors win,
// then the root namespace, then the first candidate.
func (idx *index) resolve(ref string, from *model.Container, classOnly bool) model.Entity {
	ref = strings.TrimSpace(model.StripTemplateArgs(ref))
	ref = strings.TrimPrefix(ref, "::")
	if ref == "" {
		return nil
	}

	candidates := idx.candidates(ref, classOnly)
	qualifier := ""
	if len(candidates) == 0 {
		if i := strings.LastIndex(ref, "::"); i >= 0 {
			qualifier, ref = ref[:i], ref[i+2:]
			candidates = idx.candidates(ref, classOnly)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	if qualifier != "" {
		for _, c := range candidates {
			ns := c.Base().Namespace
			if ns == qualifier || strings.HasSuffix(ns, "::"+qualifier) {
				return c
			}
		}
	}
	for ns := from.Namespace; ; ns = parentNamespace(ns) {
		for _, c := range candidates {
			if c.Base().Namespace == ns {
				return c
			}
		}
		if ns == "" {
			break
		}
	}
	return candidates[0]
}

func (idx *index) candidates(name string, classOnly bool) []model.Entity {
	all := idx.byName[name]
	if !classOnly {
		return all
	}
	var out []model.Entity
	for _, e := range all {
		if model.IsClass(e) {
			out = append(out, e)
		}
	}
	return out
}

func parentNamespace(ns string) string {
	if i := strings.LastIndex(ns, "::"); i >= 0 {
		return ns[:i]
	}
	return ""
}

func (idx *index) inheritance() []model.Relationship {
	var rels []model.Relationship
	for _, c := range idx.classes {
		for _, base := range c.Bases {
			parent := idx.resolve(base, &c.Container, true)
			if parent == nil {
				continue
			}
			rels = append(rels, model.Relationship{
				Kind:  model.Inherit,
				Left:  model.EndpointOf(parent),
				Right: model.EndpointOf(c),
			})
		}
	}
	return rels
}

func (idx *index) containment() []model.Relationship {
	type edgeKey struct {
		target *model.Class
		kind   model.LinkKind
	}

	var rels []model.Relationship
	for _, c := range idx.classes {
		counts := make(map[edgeKey]int)
		var keys []edgeKey
		for _, typ := range c.VariableTypes() {
			for _, other := range idx.classes {
				if other == c || !idx.words[other.Name].MatchString(typ) {
					continue
				}
				kind := model.Composition
				if strings.Contains(typ, other.Name+"*") {
					kind = model.Aggregation
				}
				key := edgeKey{other, kind}
				if counts[key] == 0 {
					keys = append(keys, key)
				}
				counts[key]++
			}
		}
		for _, key := range keys {
			rels = append(rels, model.Relationship{
				Kind:  key.kind,
				Left:  model.EndpointOf(c),
				Right: model.EndpointOf(key.target),
				Count: counts[key],
			})
		}
	}
	return rels
}

func (idx *index) nesting() []model.Relationship {
	var rels []model.Relationship
	for _, e := range idx.entities {
		b := e.Base()
		if b.Parent == "" {
			continue
		}
		parent := idx.resolve(b.Parent, b, true)
		if parent == nil {
			continue
		}
		rels = append(rels, model.Relationship{
			Kind:  model.Nesting,
			Left:  model.EndpointOf(parent),
			Right: model.EndpointOf(e),
		})
	}
	return rels
}

func (idx *index) dependency() []model.Relationship {
	var rels []model.Relationship
	for _, c := range idx.classes {
		for _, m := range c.Methods() {
			for _, p := range m.Params {
				for _, e := range idx.entities {
					if e == model.Entity(c) || !strings.Contains(p.Type, e.Base().Name) {
						continue
					}
					rels = append(rels, model.Relationship{
						Kind:  model.Dependency,
						Left:  model.EndpointOf(e),
						Right: model.EndpointOf(c),
					})
					break
				}
			}
		}
	}
	return rels
}
