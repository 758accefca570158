// Package service describes service classes as structural input for the
// document reader: their operations, parameters, return types and the
// routing and documentation metadata attached to each.
//
// Values in this package are built by a collaborator (a loader, a code
// generator, hand-written tables) and are treated as read-only by the
// reader.
//
//	widgets := &service.Class{
//	    Name: "WidgetResource",
//	    Path: "/widgets",
//	    Tags: []openapi.Tag{{Name: "widgets"}},
//	    Methods: []*service.Method{{
//	        Name:    "get",
//	        Verb:    "GET",
//	        Path:    "/{id}",
//	        Params:  []service.Param{{Name: "id", Type: service.Named("string"), In: service.InPath}},
//	        Returns: service.GoType(Widget{}),
//	    }},
//	}
package service

import (
	"github.com/vitalvas/svcdoc/openapi"
)

// Class is one service class: a set of operations sharing class-level
// metadata.
type Class struct {
	// Name identifies the class in diagnostics and descriptor lookups.
	Name string

	// Path is the declared root path, prepended to every method path unless
	// the class is reached as a sub-resource.
	Path string

	// Hidden excludes the class and its whole subtree from the document.
	Hidden bool

	// Deprecated marks every operation of the class as deprecated.
	Deprecated bool

	Tags            []openapi.Tag
	SecuritySchemes []NamedSecurityScheme
	Security        []openapi.SecurityRequirement
	ExternalDocs    *openapi.ExternalDocs
	Servers         []openapi.Server

	// Produces and Consumes are the class-wide media types, used when a
	// method declares none.
	Produces []string
	Consumes []string

	// Responses apply to every operation for the status codes the operation
	// does not define itself.
	Responses []Response

	// Definition carries document-level metadata declared on the class.
	Definition *Definition

	// Fields are constructor or field-level parameters shared by every
	// operation of the class.
	Fields []Param

	// TypeParams names the class type parameters, bound positionally to
	// the Args of the TypeRef that designates the class.
	TypeParams []string

	Methods []*Method

	// Super is the supertype whose methods are inherited unless this class
	// declares a method with the same identity.
	Super *Class

	// Routes, when set, is the class's runtime routing descriptor.
	Routes RoutingDescriptorSource
}

// NamedSecurityScheme is a security scheme declaration keyed for
// registration in components.
type NamedSecurityScheme struct {
	Key    string
	Scheme *openapi.SecurityScheme
}

// Definition holds document-level metadata declared by a class.
type Definition struct {
	Info         openapi.Info
	Servers      []openapi.Server
	Security     []openapi.SecurityRequirement
	ExternalDocs *openapi.ExternalDocs
	Tags         []openapi.Tag
}

// Response is a declared response of an operation or class.
type Response struct {
	// Status is an HTTP status code or "default".
	Status      string
	Description string
	ContentType string
	Type        TypeRef
}

// AllMethods returns the class methods followed by the methods of the
// supertype chain, including those a more specific class overrides.
func (c *Class) AllMethods() []*Method {
	var out []*Method
	for cls := c; cls != nil; cls = cls.Super {
		out = append(out, cls.Methods...)
	}
	return out
}

// Overrides reports whether a subclass in the chain starting at c declares
// a method with the identity of m that is not m itself.
func (c *Class) Overrides(m *Method) bool {
	id := m.Identity()
	for cls := c; cls != nil; cls = cls.Super {
		for _, other := range cls.Methods {
			if other.Identity() != id {
				continue
			}
			return other != m
		}
	}
	return false
}
