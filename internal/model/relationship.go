package model

import (
	"fmt"
	"strings"
)

// LinkKind is the kind of a relationship between two entities.
type LinkKind string

const (
	Inherit     LinkKind = "inherit"
	Aggregation LinkKind = "aggregation"
	Composition LinkKind = "composition"
	Dependency  LinkKind = "dependency"
	Nesting     LinkKind = "nesting"
)

var linkSymbols = map[LinkKind]string{
	Inherit:     "<|--",
	Aggregation: "o--",
	Composition: "*--",
	Dependency:  "<..",
	Nesting:     "+--",
}

// Symbol returns the PlantUML arrow for the link kind.
func (k LinkKind) Symbol() string {
	return linkSymbols[k]
}

// Endpoint identifies one side of a relationship.
type Endpoint struct {
	Name      string
	Namespace string
}

// EndpointOf returns the endpoint for an entity.
func EndpointOf(e Entity) Endpoint {
	c := e.Base()
	return Endpoint{Name: c.Name, Namespace: c.Namespace}
}

// LinkName returns the PlantUML reference to the endpoint. When qualify is
// set the namespace is prepended with "." separators; the root namespace is
// written as a leading ".".
func (e Endpoint) LinkName(qualify bool) string {
	if !qualify {
		return e.Name
	}
	if e.Namespace == "" {
		return "." + e.Name
	}
	return strings.ReplaceAll(e.Namespace, "::", ".") + "." + e.Name
}

// Relationship is a directed edge rendered as "Left <arrow> Right".
//
//   - Inherit: Left is the base class, Right the derived class.
//   - Aggregation/Composition: Left declares a member whose type is Right.
//   - Dependency: Left is a method parameter type of Right.
//   - Nesting: Left encloses the declaration of Right.
type Relationship struct {
	Kind  LinkKind
	Left  Endpoint
	Right Endpoint
	// Count is the number of members behind a containment relationship.
	Count int
}

// SharedNamespace returns the namespace both endpoints live in, or "".
func (r Relationship) SharedNamespace() string {
	if r.Left.Namespace == r.Right.Namespace {
		return r.Left.Namespace
	}
	return ""
}

// Render returns the relationship line. A containment count of one is not
// displayed.
func (r Relationship) Render(qualify bool) string {
	arrow := r.Kind.Symbol()
	if (r.Kind == Aggregation || r.Kind == Composition) && r.Count > 1 {
		arrow = fmt.Sprintf(`"%d" %s`, r.Count, arrow)
	}
	return r.Left.LinkName(qualify) + " " + arrow + " " + r.Right.LinkName(qualify)
}
