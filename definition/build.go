package definition

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/reader"
	"github.com/vitalvas/svcdoc/service"
)

// Set is a loaded service tree.
type Set struct {
	// Classes holds every declared service in file order.
	Classes []*service.Class

	// Roots are the services read on their own, in file order.
	Roots []*service.Class

	// Converter knows the named schemas of the file.
	Converter *reader.Converter
}

// Lookup returns the class declared under name.
func (s *Set) Lookup(name string) (*service.Class, bool) {
	for _, cls := range s.Classes {
		if cls.Name == name {
			return cls, true
		}
	}
	return nil, false
}

// Build converts f into service classes. Document-level metadata becomes
// the Definition of every root service.
func (f *File) Build() (*Set, error) {
	set := &Set{Converter: reader.NewConverter()}

	for _, name := range slices.Sorted(maps.Keys(f.Schemas)) {
		node := f.Schemas[name]
		schema, err := decodeSchema(&node)
		if err != nil {
			return nil, &Error{Field: "schemas." + name, Message: fmt.Sprintf("decode schema: %v", err), Cause: err}
		}
		set.Converter.Define(name, schema)
	}

	b := &builder{classes: make(map[string]*service.Class, len(f.Services))}
	for i, svc := range f.Services {
		if _, dup := b.classes[svc.Name]; dup {
			return nil, &Error{Field: fmt.Sprintf("services[%d].name", i), Message: fmt.Sprintf("duplicate service %q", svc.Name)}
		}
		cls := &service.Class{Name: svc.Name}
		b.classes[svc.Name] = cls
		set.Classes = append(set.Classes, cls)
	}

	def := f.definition()
	for i, svc := range f.Services {
		cls := b.classes[svc.Name]
		if err := b.fill(cls, svc, fmt.Sprintf("services[%d]", i)); err != nil {
			return nil, err
		}
		if !svc.SubResource {
			cls.Definition = def
			set.Roots = append(set.Roots, cls)
		}
	}

	for i, cls := range set.Classes {
		if err := checkHierarchy(cls); err != nil {
			return nil, &Error{Field: fmt.Sprintf("services[%d].extends", i), Message: err.Error()}
		}
	}
	return set, nil
}

func (f *File) definition() *service.Definition {
	return &service.Definition{
		Info: openapi.Info{
			Title:       f.Info.Title,
			Version:     f.Info.Version,
			Summary:     f.Info.Summary,
			Description: f.Info.Description,
		},
		Servers:      servers(f.Servers),
		Security:     security(f.Security),
		ExternalDocs: externalDocs(f.ExternalDocs),
		Tags:         tags(f.Tags),
	}
}

type builder struct {
	classes map[string]*service.Class
}

func (b *builder) fill(cls *service.Class, svc Service, field string) error {
	cls.Path = svc.Path
	cls.Hidden = svc.Hidden
	cls.Deprecated = svc.Deprecated
	cls.TypeParams = svc.TypeParams
	cls.Tags = tags(svc.Tags)
	cls.Security = security(svc.Security)
	cls.Servers = servers(svc.Servers)
	cls.ExternalDocs = externalDocs(svc.ExternalDocs)
	cls.Produces = svc.Produces
	cls.Consumes = svc.Consumes
	cls.Responses = b.responses(svc.Responses)

	if svc.Extends != "" {
		super, ok := b.classes[svc.Extends]
		if !ok {
			return &Error{Field: field + ".extends", Message: fmt.Sprintf("unknown service %q", svc.Extends)}
		}
		cls.Super = super
	}

	for _, key := range slices.Sorted(maps.Keys(svc.SecuritySchemes)) {
		s := svc.SecuritySchemes[key]
		cls.SecuritySchemes = append(cls.SecuritySchemes, service.NamedSecurityScheme{
			Key: key,
			Scheme: &openapi.SecurityScheme{
				Type:             s.Type,
				Description:      s.Description,
				Name:             s.Name,
				In:               s.In,
				Scheme:           s.Scheme,
				BearerFormat:     s.BearerFormat,
				OpenIDConnectURL: s.OpenIDConnectURL,
			},
		})
	}

	for _, p := range svc.Fields {
		cls.Fields = append(cls.Fields, b.param(p))
	}

	if len(svc.Routes) > 0 {
		routes := make(service.Routes, 0, len(svc.Routes))
		for _, r := range svc.Routes {
			routes = append(routes, service.RouteFact{Call: r.Call, Verb: r.Method, Pattern: r.Path})
		}
		cls.Routes = routes
	}

	for _, m := range svc.Methods {
		cls.Methods = append(cls.Methods, b.method(m))
	}
	return nil
}

func (b *builder) method(m Method) *service.Method {
	out := &service.Method{
		Name:       m.Name,
		Path:       m.Path,
		Verb:       strings.ToUpper(m.Verb),
		Produces:   m.Produces,
		Consumes:   m.Consumes,
		Deprecated: m.Deprecated,
		Hidden:     m.Hidden,
		View:       m.View,
	}
	if m.Returns != nil {
		out.Returns = b.typeRef(*m.Returns)
	}
	for _, p := range m.Params {
		out.Params = append(out.Params, b.param(p))
	}

	if m.OperationID != "" || m.Summary != "" || m.Description != "" || len(m.Tags) > 0 ||
		len(m.Security) > 0 || m.ExternalDocs != nil || len(m.Responses) > 0 || m.IgnoreView {
		out.Meta = &service.OperationMeta{
			ID:           m.OperationID,
			Summary:      m.Summary,
			Description:  m.Description,
			Tags:         m.Tags,
			Security:     security(m.Security),
			ExternalDocs: externalDocs(m.ExternalDocs),
			Responses:    b.responses(m.Responses),
			IgnoreView:   m.IgnoreView,
		}
	}
	return out
}

func (b *builder) param(p Param) service.Param {
	out := service.Param{
		Name:     p.Name,
		Type:     b.typeRef(*p.Type),
		Default:  p.Default,
		Injected: p.Injected,
		View:     p.View,
	}

	if p.In == "body" {
		out.Body = &service.BodyMeta{
			Description: p.Description,
			ContentType: p.ContentType,
			Required:    p.Required != nil && *p.Required,
		}
	} else {
		out.In = service.Location(p.In)
	}

	if p.Description != "" || p.Required != nil || p.Deprecated || p.Hidden || p.Style != "" ||
		p.Explode != nil || p.Example != nil || p.Implementation != nil {
		out.Meta = &service.ParamMeta{
			Description: p.Description,
			Required:    p.Required,
			Deprecated:  p.Deprecated,
			Hidden:      p.Hidden,
			Style:       p.Style,
			Explode:     p.Explode,
			Example:     p.Example,
		}
		if p.Implementation != nil {
			impl := b.typeRef(*p.Implementation)
			out.Meta.Implementation = &impl
		}
	}
	return out
}

func (b *builder) responses(in []Response) []service.Response {
	var out []service.Response
	for _, r := range in {
		resp := service.Response{
			Status:      r.Status,
			Description: r.Description,
			ContentType: r.ContentType,
		}
		if r.Type != nil {
			resp.Type = b.typeRef(*r.Type)
		}
		out = append(out, resp)
	}
	return out
}

// typeRef resolves service names to class references and keeps every other
// name for the converter.
func (b *builder) typeRef(t TypeSpec) service.TypeRef {
	if t.Var != "" {
		return service.Var(t.Var)
	}
	args := make([]service.TypeRef, 0, len(t.Args))
	for _, a := range t.Args {
		args = append(args, b.typeRef(a))
	}
	if len(args) == 0 {
		args = nil
	}
	if cls, ok := b.classes[t.Name]; ok {
		return service.ClassType(cls, args...)
	}
	return service.Named(t.Name, args...)
}

// checkHierarchy rejects supertype chains that loop.
func checkHierarchy(cls *service.Class) error {
	seen := map[*service.Class]bool{}
	for c := cls; c != nil; c = c.Super {
		if seen[c] {
			return fmt.Errorf("service %q has a cyclic extends chain", cls.Name)
		}
		seen[c] = true
	}
	return nil
}

func tags(in []Tag) []openapi.Tag {
	var out []openapi.Tag
	for _, t := range in {
		out = append(out, openapi.Tag{Name: t.Name, Description: t.Description})
	}
	return out
}

func servers(in []Server) []openapi.Server {
	var out []openapi.Server
	for _, s := range in {
		out = append(out, openapi.Server{URL: s.URL, Description: s.Description})
	}
	return out
}

func security(in []map[string][]string) []openapi.SecurityRequirement {
	var out []openapi.SecurityRequirement
	for _, req := range in {
		r := make(openapi.SecurityRequirement, len(req))
		for name, scopes := range req {
			if scopes == nil {
				scopes = []string{}
			}
			r[name] = scopes
		}
		out = append(out, r)
	}
	return out
}

func externalDocs(in *ExternalDocs) *openapi.ExternalDocs {
	if in == nil {
		return nil
	}
	return &openapi.ExternalDocs{URL: in.URL, Description: in.Description}
}
