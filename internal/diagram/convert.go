package diagram

import (
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/hpp2puml/internal/model"
	"github.com/phobologic/hpp2puml/internal/parse"
)

// ErrStaticAbstract is returned for a method declared both static and pure
// virtual.
var ErrStaticAbstract = errors.Base("member is both static and abstract")

// convert turns the declarations of one header into entities: classes in
// declaration order, then enums.
func convert(h *parse.Header) ([]model.Entity, error) {
	entities := make([]model.Entity, 0, len(h.Classes)+len(h.Enums))
	for _, decl := range h.Classes {
		c, err := convertClass(decl)
		if err != nil {
			return nil, errors.Errorf("%s: %w", h.Name, err)
		}
		entities = append(entities, c)
	}
	for _, decl := range h.Enums {
		entities = append(entities, convertEnum(decl))
	}
	return entities, nil
}

// container fills the fields shared by classes and enums. A nested type
// keeps its parent and drops the namespace.
func container(kind model.Kind, name, namespace, parent string) model.Container {
	c := model.Container{
		Kind:   kind,
		Name:   model.CleanName(name),
		Parent: model.CleanName(parent),
	}
	if parent == "" {
		c.Namespace = model.CleanNamespace(namespace)
	}
	return c
}

func convertClass(decl *parse.ClassDecl) (*model.Class, error) {
	c := &model.Class{
		Container: container(decl.Kind, decl.Name, decl.Namespace, decl.Parent),
		Template:  model.SingleLine(decl.Template),
	}
	for _, base := range decl.Bases {
		c.Bases = append(c.Bases, model.SingleLine(base))
	}

	for _, vis := range model.Visibilities {
		for _, v := range decl.Variables {
			if v.Visibility != vis {
				continue
			}
			typ := model.CleanType(v.Type)
			if v.Array {
				typ += "[]"
			}
			c.Members = append(c.Members, &model.Variable{
				Name:       v.Name,
				Visibility: v.Visibility,
				Static:     v.Static,
				Type:       typ,
			})
		}
		for _, m := range decl.Methods {
			if m.Visibility != vis || m.Deleted {
				continue
			}
			if m.Static && m.PureVirtual {
				return nil, errors.Errorf("%s::%s: %w", decl.Name, m.Name, ErrStaticAbstract)
			}
			method := convertMethod(m)
			c.Abstract = c.Abstract || method.Abstract
			c.Members = append(c.Members, method)
		}
	}
	return c, nil
}

func convertMethod(m parse.MethodDecl) *model.Method {
	method := &model.Method{
		Name:       m.Name,
		Visibility: m.Visibility,
		Static:     m.Static,
		Abstract:   m.PureVirtual,
		Const:      m.Const,
		Destructor: m.Destructor,
	}
	if m.Destructor {
		method.Name = "~" + m.Name
	}
	if m.Returns != "" {
		method.ReturnType = model.CleanType(m.Returns)
		switch {
		case m.ReturnsPointer:
			method.ReturnType += "*"
		case m.ReturnsReference:
			method.ReturnType += "&"
		}
	}
	for _, p := range m.Params {
		method.Params = append(method.Params, model.Param{
			Type: model.CleanType(p.Type),
			Name: p.Name,
		})
	}
	return method
}

func convertEnum(decl *parse.EnumDecl) *model.Enum {
	e := &model.Enum{Container: container(model.KindEnum, decl.Name, decl.Namespace, decl.Parent)}
	for _, v := range decl.Values {
		e.Members = append(e.Members, &model.EnumValue{Name: v})
	}
	return e
}
