package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/vitalvas/svcdoc/openapi"
)

// Method is one callable member of a Class.
type Method struct {
	Name    string
	Params  []Param
	Returns TypeRef

	// Path is the method-level path template, joined to the class path.
	Path string

	// Verb is the declared HTTP method. Empty means the method carries no
	// verb annotation.
	Verb string

	Produces   []string
	Consumes   []string
	Deprecated bool
	Hidden     bool

	// View scopes the serialization of bodies to a named view.
	View string

	Meta *OperationMeta
}

// OperationMeta is the documentation metadata attached to a method.
type OperationMeta struct {
	ID           string
	Summary      string
	Description  string
	Tags         []string
	Security     []openapi.SecurityRequirement
	ExternalDocs *openapi.ExternalDocs
	Responses    []Response
	Hidden       bool

	// IgnoreView disables View for both the request body and responses.
	IgnoreView bool
}

// Identity returns "name(T1,T2)", unique per overload within a class.
func (m *Method) Identity() string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// IsHidden reports whether the method is excluded from the document.
func (m *Method) IsHidden() bool {
	return m.Hidden || (m.Meta != nil && m.Meta.Hidden)
}

// Compare orders methods by name, then parameter count, then parameter
// type names position by position.
func Compare(a, b *Method) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(len(a.Params), len(b.Params)); c != 0 {
		return c
	}
	for i := range a.Params {
		if c := strings.Compare(a.Params[i].Type.String(), b.Params[i].Type.String()); c != 0 {
			return c
		}
	}
	return 0
}

// Sorted returns a copy of methods in Compare order. Equal methods keep
// their relative order.
func Sorted(methods []*Method) []*Method {
	out := slices.Clone(methods)
	slices.SortStableFunc(out, Compare)
	return out
}

// Location is where a parameter is carried in the request.
type Location string

const (
	InNone   Location = ""
	InQuery  Location = "query"
	InPath   Location = "path"
	InHeader Location = "header"
	InCookie Location = "cookie"
	InForm   Location = "form"
)

// Param is one formal parameter of a method, or a class-level field
// parameter.
type Param struct {
	Name string
	Type TypeRef

	// In is the location annotation. InNone with other annotations present
	// makes the parameter a request body.
	In Location

	// Default is the declared default value, as written.
	Default string

	// Injected marks framework-supplied values (request context and the
	// like) that are never documented.
	Injected bool

	// View scopes the serialization of a body parameter.
	View string

	Meta *ParamMeta
	Body *BodyMeta
}

// ParamMeta is the documentation metadata attached to a parameter.
type ParamMeta struct {
	Description string
	Required    *bool
	Deprecated  bool
	Hidden      bool
	Style       string
	Explode     *bool
	Example     any

	// Implementation overrides the structural type for schema derivation.
	Implementation *TypeRef
}

// BodyMeta marks a parameter as the request body explicitly.
type BodyMeta struct {
	Description string
	Required    bool
	ContentType string
}

// HasAnnotations reports whether any annotation is attached to p.
func (p Param) HasAnnotations() bool {
	return p.In != InNone || p.Default != "" || p.Injected || p.View != "" ||
		p.Meta != nil || p.Body != nil
}
