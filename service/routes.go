package service

import (
	"strings"
)

// RouteFact is one entry of a runtime routing descriptor.
type RouteFact struct {
	// Call identifies the operation: a full identity "name(T1,T2)" or a bare
	// method name matching every overload.
	Call string

	// Verb is the HTTP method. Facts without a verb are named or path-only
	// calls and never route an operation.
	Verb string

	// Pattern is the native path pattern, with ":name" placeholders and an
	// optional query-string suffix ("/widgets/:id?fields").
	Pattern string
}

// Matches reports whether f routes m.
func (f RouteFact) Matches(m *Method) bool {
	if f.Verb == "" {
		return false
	}
	if strings.ContainsRune(f.Call, '(') {
		return f.Call == m.Identity()
	}
	return f.Call == m.Name
}

// RoutingDescriptorSource is implemented by classes that describe their own
// routing at runtime.
type RoutingDescriptorSource interface {
	Descriptor() ([]RouteFact, error)
}

// Routes is a fixed routing descriptor.
type Routes []RouteFact

// Descriptor implements RoutingDescriptorSource.
func (r Routes) Descriptor() ([]RouteFact, error) {
	return r, nil
}

// DescriptorFunc adapts a function to RoutingDescriptorSource.
type DescriptorFunc func() ([]RouteFact, error)

// Descriptor implements RoutingDescriptorSource.
func (f DescriptorFunc) Descriptor() ([]RouteFact, error) {
	return f()
}
