package reader

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

const (
	defaultMediaType   = "*/*"
	formMediaType      = "application/x-www-form-urlencoded"
	defaultResponseKey = "default"
)

// buildOperation assembles the document operation for m. It is used for
// sub-resource pointers as well, whose body, responses and parameters are
// handed down to the target's operations.
func (r *Reader) buildOperation(cc *classContext, m *service.Method, route Route, p *parent) *openapi.Operation {
	cls := cc.cls
	meta := m.Meta
	if meta == nil {
		meta = &service.OperationMeta{}
	}

	op := &openapi.Operation{
		Tags:         mergeNames(cc.tags, meta.Tags),
		Summary:      meta.Summary,
		Description:  meta.Description,
		ExternalDocs: meta.ExternalDocs,
		Deprecated:   m.Deprecated || cls.Deprecated,
	}
	if op.ExternalDocs == nil {
		op.ExternalDocs = cls.ExternalDocs
	}
	switch {
	case len(meta.Security) > 0:
		op.Security = meta.Security
	case len(cls.Security) > 0:
		op.Security = cls.Security
	}
	if len(cls.Servers) > 0 {
		op.Servers = cls.Servers
	}

	view, bodyView := views(m)
	ctx := paramContext{
		class:    cls.Name,
		method:   m.Identity(),
		bindings: p.bindings,
		view:     view,
		bodyView: bodyView,
	}

	params := appendParams(nil, cc.fields...)
	var (
		form []*openapi.Parameter
		body *openapi.RequestBody
	)
	for _, param := range m.Params {
		res := r.resolveParam(param, ctx)
		params = appendParams(params, res.params...)
		form = append(form, res.form...)
		if res.body == nil {
			continue
		}
		if body != nil {
			r.log.Warn("ignoring additional request body parameter",
				"class", cls.Name, "method", ctx.method, "param", param.Name)
			continue
		}
		body = requestBody(res.body, consumes(m, cls, defaultMediaType))
	}

	if merged := mergeForm(form); merged != nil {
		if body != nil {
			r.log.Warn("ignoring form parameters of an operation with a request body",
				"class", cls.Name, "method", ctx.method, "count", len(form))
		} else {
			body = requestBody(merged, consumes(m, cls, formMediaType))
		}
	}

	respType, reqType := r.unwrapReturn(m, ctx)
	if body == nil && !reqType.IsZero() {
		if schema := r.schemaFor(reqType, bodyView); schema != nil {
			body = requestBody(&bodyFragment{schema: schema}, consumes(m, cls, defaultMediaType))
		}
	}
	if body == nil {
		body = cloneRequestBody(p.body)
	}
	op.RequestBody = body

	op.Parameters = cloneParams(appendParams(applyPatterns(params, route.Patterns), p.params...))
	op.Responses = r.responses(cc, m, respType, view, p)

	return op
}

// uniqueOperationID returns id for the operation at owner ("path verb"),
// suffixing "_1", "_2"... while another operation holds it. The id is not
// reserved until reserveOperationID is called.
func (r *Reader) uniqueOperationID(id, owner string) string {
	candidate := id
	for i := 1; ; i++ {
		holder, taken := r.opIDs[candidate]
		if !taken || holder == owner {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", id, i)
	}
}

func (r *Reader) reserveOperationID(id, owner string) {
	r.opIDs[id] = owner
}

// unwrapReturn resolves the declared return type of m. For a call wrapper
// it returns the wrapped response and request types.
func (r *Reader) unwrapReturn(m *service.Method, ctx paramContext) (resp, req service.TypeRef) {
	t, ok := ctx.bindings.Resolve(m.Returns)
	if !ok {
		r.log.Warn("dropping return type with unresolvable type variable",
			"class", ctx.class, "method", ctx.method, "type", m.Returns.String())
		return service.TypeRef{}, service.TypeRef{}
	}
	if !slices.Contains(r.cfg.CallWrappers, t.TypeName()) {
		return t, service.TypeRef{}
	}
	if len(t.Args) != 2 {
		r.log.Error("unexpected call wrapper definition",
			"class", ctx.class, "method", ctx.method, "type", t.String())
		return service.TypeRef{}, service.TypeRef{}
	}
	return t.Args[1], t.Args[0]
}

// schemaFor converts t unless it is empty or ignorable.
func (r *Reader) schemaFor(t service.TypeRef, view string) *openapi.Schema {
	if t.IsZero() {
		return nil
	}
	if t.Schema == nil && r.cfg.Types.Ignored(t.TypeName()) {
		return nil
	}
	return r.cfg.Converter.Resolve(t, view)
}

// responses builds the response map of an operation: declared responses,
// class responses for codes not yet declared, then the return type as the
// default response, then the parent responses.
func (r *Reader) responses(cc *classContext, m *service.Method, ret service.TypeRef, view string, p *parent) map[string]*openapi.Response {
	produces := produces(m, cc.cls, defaultMediaType)
	out := make(map[string]*openapi.Response)

	var declared []service.Response
	if m.Meta != nil {
		declared = m.Meta.Responses
	}
	for _, group := range [][]service.Response{declared, cc.cls.Responses} {
		for _, resp := range group {
			key := resp.Status
			if key == "" {
				key = defaultResponseKey
			}
			if _, ok := out[key]; ok {
				continue
			}
			out[key] = r.response(resp, key, produces, view, p.bindings)
		}
	}
	if len(out) > 0 {
		return out
	}

	if schema := r.schemaFor(ret, view); schema != nil {
		out[defaultResponseKey] = &openapi.Response{
			Description: responseDescription(defaultResponseKey),
			Content:     mediaTypes(schema, nil, produces),
		}
		return out
	}
	if len(p.responses) > 0 {
		return cloneResponses(p.responses)
	}

	out[defaultResponseKey] = &openapi.Response{Description: responseDescription(defaultResponseKey)}
	return out
}

func (r *Reader) response(resp service.Response, key string, produces []string, view string, bindings service.Bindings) *openapi.Response {
	out := &openapi.Response{Description: resp.Description}
	if out.Description == "" {
		out.Description = responseDescription(key)
	}
	typ, ok := bindings.Resolve(resp.Type)
	if !ok {
		return out
	}
	schema := r.schemaFor(typ, view)
	if schema == nil {
		return out
	}
	if resp.ContentType != "" {
		produces = []string{resp.ContentType}
	}
	out.Content = mediaTypes(schema, nil, produces)
	return out
}

// responseDescription returns a human-readable description for a response key.
func responseDescription(key string) string {
	if key == defaultResponseKey {
		return "default response"
	}
	if code, err := strconv.Atoi(key); err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

func requestBody(frag *bodyFragment, contentTypes []string) *openapi.RequestBody {
	if frag.contentType != "" {
		contentTypes = []string{frag.contentType}
	}
	return &openapi.RequestBody{
		Description: frag.description,
		Required:    frag.required,
		Content:     mediaTypes(frag.schema, frag.encoding, contentTypes),
	}
}

func mediaTypes(schema *openapi.Schema, encoding map[string]*openapi.Encoding, contentTypes []string) map[string]*openapi.MediaType {
	out := make(map[string]*openapi.MediaType, len(contentTypes))
	for _, ct := range contentTypes {
		out[ct] = &openapi.MediaType{Schema: schema, Encoding: encoding}
	}
	return out
}

// cloneParams copies every parameter so that an operation never shares a
// parameter with the operations it was inherited from.
func cloneParams(params []*openapi.Parameter) []*openapi.Parameter {
	if params == nil {
		return nil
	}
	out := make([]*openapi.Parameter, len(params))
	for i, p := range params {
		cp := *p
		out[i] = &cp
	}
	return out
}

func cloneRequestBody(body *openapi.RequestBody) *openapi.RequestBody {
	if body == nil {
		return nil
	}
	cp := *body
	cp.Content = maps.Clone(body.Content)
	return &cp
}

func cloneResponses(responses map[string]*openapi.Response) map[string]*openapi.Response {
	out := make(map[string]*openapi.Response, len(responses))
	for key, resp := range responses {
		cp := *resp
		cp.Headers = maps.Clone(resp.Headers)
		cp.Content = maps.Clone(resp.Content)
		out[key] = &cp
	}
	return out
}

// applyPatterns attaches "{name:regex}" expressions to path parameter
// schemas that declare no pattern of their own.
func applyPatterns(params []*openapi.Parameter, patterns map[string]string) []*openapi.Parameter {
	if len(patterns) == 0 {
		return params
	}
	for i, p := range params {
		re, ok := patterns[p.Name]
		if !ok || p.In != string(service.InPath) || p.Schema == nil || p.Schema.Pattern != "" {
			continue
		}
		cp := *p
		cp.Schema = p.Schema.Clone()
		cp.Schema.Pattern = re
		params[i] = &cp
	}
	return params
}

// views returns the serialization view of responses and of the request
// body. The body uses the view of its parameter when exactly one body
// parameter declares one.
func views(m *service.Method) (view, bodyView string) {
	if m.Meta != nil && m.Meta.IgnoreView {
		return "", ""
	}
	view, bodyView = m.View, m.View

	var declared []string
	for _, p := range m.Params {
		if p.In == service.InNone && p.View != "" {
			declared = append(declared, p.View)
		}
	}
	if len(declared) == 1 {
		bodyView = declared[0]
	}
	return view, bodyView
}

func consumes(m *service.Method, cls *service.Class, fallback string) []string {
	switch {
	case len(m.Consumes) > 0:
		return m.Consumes
	case len(cls.Consumes) > 0:
		return cls.Consumes
	}
	return []string{fallback}
}

func produces(m *service.Method, cls *service.Class, fallback string) []string {
	switch {
	case len(m.Produces) > 0:
		return m.Produces
	case len(cls.Produces) > 0:
		return cls.Produces
	}
	return []string{fallback}
}

// mergeNames concatenates name lists, dropping empty names and repeats.
func mergeNames(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if name != "" && !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}
