package parse

import (
	"github.com/phobologic/hpp2puml/internal/model"
)

// Header is the declaration tree of one parsed input. Classes and enums
// are listed in declaration order; nested types follow their enclosing
// type.
type Header struct {
	Name    string
	Classes []*ClassDecl
	Enums   []*EnumDecl
}

// ClassDecl is a class, struct or union with a body.
type ClassDecl struct {
	// Name is qualified with the enclosing type for nested declarations
	// ("Outer::Inner"), and may carry template arguments for
	// specialisations.
	Name string
	Kind model.Kind
	// Namespace is the enclosing namespace path ("a::b").
	Namespace string
	// Parent is the name of the enclosing class, empty at namespace scope.
	Parent    string
	Template  string
	Bases     []string
	Variables []VariableDecl
	Methods   []MethodDecl
}

// VariableDecl is a member variable declaration.
type VariableDecl struct {
	Name       string
	Visibility model.Visibility
	Static     bool
	// Type is the raw type including pointer and reference tokens from the
	// declarator.
	Type  string
	Array bool
}

// MethodDecl is a member function declaration or inline definition.
type MethodDecl struct {
	Name             string
	Visibility       model.Visibility
	Static           bool
	Const            bool
	PureVirtual      bool
	Destructor       bool
	ReturnsPointer   bool
	ReturnsReference bool
	// Returns is the raw return type without the final pointer or
	// reference token; empty for constructors and destructors.
	Returns string
	Params  []ParamDecl
	// Deleted is set for "= delete" and "= default" declarations.
	Deleted bool
}

// ParamDecl is one method parameter.
type ParamDecl struct {
	Type string
	Name string
}

// EnumDecl is an enumeration with a body.
type EnumDecl struct {
	Name      string
	Namespace string
	Parent    string
	Values    []string
}
