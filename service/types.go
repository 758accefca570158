package service

import (
	"reflect"
	"strings"

	"github.com/vitalvas/svcdoc/openapi"
)

// TypeRef is a structural type reference. Exactly one of its shapes is
// normally used:
//
//   - Name, optionally with Args, for a named structural type
//     ("string", "ServiceCall" with two args, "example.Widget")
//   - Var for a type parameter of the owning class
//   - Go for a concrete Go type, converted by reflection
//   - Class for a type that designates another service class
//   - Schema for an explicit schema
type TypeRef struct {
	Name   string
	Args   []TypeRef
	Var    string
	Go     reflect.Type
	Class  *Class
	Schema *openapi.Schema
}

// Named returns a TypeRef for a named structural type.
func Named(name string, args ...TypeRef) TypeRef {
	return TypeRef{Name: name, Args: args}
}

// GoType returns a TypeRef for the dynamic type of v.
func GoType(v any) TypeRef {
	return TypeRef{Go: reflect.TypeOf(v)}
}

// ClassType returns a TypeRef designating cls with optional type arguments.
func ClassType(cls *Class, args ...TypeRef) TypeRef {
	return TypeRef{Name: cls.Name, Class: cls, Args: args}
}

// Var returns a TypeRef naming a class type parameter.
func Var(name string) TypeRef {
	return TypeRef{Var: name}
}

// IsZero reports whether t refers to nothing.
func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Var == "" && t.Go == nil && t.Class == nil && t.Schema == nil
}

// IsGeneric reports whether t is a type variable or carries type arguments.
func (t TypeRef) IsGeneric() bool {
	return t.Var != "" || len(t.Args) > 0
}

// TypeName returns the raw name of t without type arguments.
func (t TypeRef) TypeName() string {
	switch {
	case t.Var != "":
		return t.Var
	case t.Name != "":
		return t.Name
	case t.Class != nil:
		return t.Class.Name
	case t.Go != nil:
		return t.Go.String()
	}
	return ""
}

// String renders t as "Name[Arg1,Arg2]".
func (t TypeRef) String() string {
	name := t.TypeName()
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return name + "[" + strings.Join(args, ",") + "]"
}

// Bindings maps class type parameters to their arguments.
type Bindings map[string]TypeRef

// Resolve substitutes type variables in t, recursively through Args. It
// reports false when a variable has no binding.
func (b Bindings) Resolve(t TypeRef) (TypeRef, bool) {
	if t.Var != "" {
		bound, ok := b[t.Var]
		return bound, ok
	}
	if len(t.Args) == 0 {
		return t, true
	}
	out := t
	out.Args = make([]TypeRef, len(t.Args))
	for i, a := range t.Args {
		r, ok := b.Resolve(a)
		if !ok {
			return t, false
		}
		out.Args[i] = r
	}
	return out, true
}
