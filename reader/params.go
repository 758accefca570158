package reader

import (
	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

// bodyFragment is a request body contributed by one parameter, or
// synthesized from form parameters.
type bodyFragment struct {
	schema      *openapi.Schema
	description string
	required    bool
	contentType string
	encoding    map[string]*openapi.Encoding
}

// resolvedParam is what one formal parameter turns into.
type resolvedParam struct {
	params []*openapi.Parameter
	form   []*openapi.Parameter
	body   *bodyFragment
}

// paramContext is the ambient state for resolving the parameters of one
// operation.
type paramContext struct {
	class    string
	method   string
	bindings service.Bindings
	view     string
	bodyView string
}

// resolveParam converts one formal parameter into location parameters,
// form parameters or a request body fragment.
func (r *Reader) resolveParam(p service.Param, ctx paramContext) resolvedParam {
	var out resolvedParam
	if !p.HasAnnotations() || p.Injected || (p.Meta != nil && p.Meta.Hidden) {
		return out
	}

	typ := p.Type
	if p.Meta != nil && p.Meta.Implementation != nil {
		if impl := *p.Meta.Implementation; !impl.IsZero() && !impl.IsGeneric() {
			typ = impl
		}
	}
	typ, ok := ctx.bindings.Resolve(typ)
	if !ok {
		r.log.Warn("dropping parameter with unresolvable type variable",
			"class", ctx.class, "method", ctx.method, "param", p.Name, "type", p.Type.String())
		return out
	}

	view := ctx.view
	isBody := p.In == service.InNone
	if isBody {
		view = ctx.bodyView
	}

	schema := r.cfg.Converter.Resolve(typ, view)
	if schema == nil {
		r.log.Warn("dropping parameter with unconvertible type",
			"class", ctx.class, "method", ctx.method, "param", p.Name, "type", typ.String())
		return out
	}
	if p.Default != "" {
		schema = schema.Clone()
		schema.Default = openapi.ParseValue(schema, p.Default)
	}

	if isBody {
		out.body = &bodyFragment{schema: schema}
		if p.Body != nil {
			out.body.description = p.Body.Description
			out.body.required = p.Body.Required
			out.body.contentType = p.Body.ContentType
		}
		if p.Meta != nil {
			if out.body.description == "" {
				out.body.description = p.Meta.Description
			}
			if p.Meta.Required != nil && *p.Meta.Required {
				out.body.required = true
			}
		}
		return out
	}

	if p.Name == "" {
		r.log.Warn("dropping unnamed parameter",
			"class", ctx.class, "method", ctx.method, "in", string(p.In))
		return out
	}

	param := &openapi.Parameter{
		Name:   p.Name,
		In:     string(p.In),
		Schema: schema,
	}
	if m := p.Meta; m != nil {
		param.Description = m.Description
		param.Deprecated = m.Deprecated
		param.Style = m.Style
		param.Explode = m.Explode
		param.Example = m.Example
		if m.Required != nil {
			param.Required = *m.Required
		}
	}

	switch p.In {
	case service.InPath:
		param.Required = true
		out.params = append(out.params, param)
	case service.InQuery, service.InHeader, service.InCookie:
		out.params = append(out.params, param)
	case service.InForm:
		out.form = append(out.form, param)
	default:
		r.log.Warn("dropping parameter with unknown location",
			"class", ctx.class, "method", ctx.method, "param", p.Name, "in", string(p.In))
	}
	return out
}

// appendParams appends params to dst, skipping any whose name and location
// are already present.
func appendParams(dst []*openapi.Parameter, params ...*openapi.Parameter) []*openapi.Parameter {
	for _, p := range params {
		dup := false
		for _, d := range dst {
			if d.Name == p.Name && d.In == p.In {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, p)
		}
	}
	return dst
}
