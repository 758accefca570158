package reader

import (
	"log/slog"
	"maps"

	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

// Reader resolves service classes into one OpenAPI document. Successive
// calls to Read fold more classes into the same document. A Reader is not
// safe for concurrent use.
type Reader struct {
	doc        *openapi.Document
	cfg        Config
	log        *slog.Logger
	components *openapi.Components

	// tags accumulates document tags in first-seen order.
	tags []openapi.Tag

	verbs       map[*service.Method]descriptorRoute
	descriptors map[*service.Class][]service.RouteFact

	// opIDs maps operation ids to the "path verb" owning them.
	opIDs map[string]string
}

// parent is the context a sub-resource inherits from its pointer operation.
type parent struct {
	path      string
	sub       bool
	body      *openapi.RequestBody
	responses map[string]*openapi.Response
	tags      []string
	params    []*openapi.Parameter

	// bindings binds the type parameters of the class being read.
	bindings service.Bindings
}

// classContext is the class-level state collected once per class visit.
type classContext struct {
	cls    *service.Class
	tags   []string
	fields []*openapi.Parameter
}

// New returns a reader that writes into doc. A nil doc starts an empty
// 3.1.0 document.
func New(doc *openapi.Document, cfg Config) *Reader {
	if doc == nil {
		doc = openapi.NewDocument(openapi.Info{})
	}
	cfg = cfg.withDefaults()

	r := &Reader{
		doc:         doc,
		cfg:         cfg,
		log:         cfg.Logger,
		components:  &openapi.Components{},
		verbs:       make(map[*service.Method]descriptorRoute),
		descriptors: make(map[*service.Class][]service.RouteFact),
		opIDs:       make(map[string]string),
	}
	for path, item := range doc.Paths {
		item.Operations(func(method string, op *openapi.Operation) {
			if op.OperationID != "" {
				r.opIDs[op.OperationID] = path + " " + method
			}
		})
	}
	return r
}

// Document returns the document being built.
func (r *Reader) Document() *openapi.Document {
	return r.doc
}

// Read walks cls and every sub-resource reachable from it, adding their
// operations to the document. A hidden class leaves the document unchanged.
// Only a failing routing descriptor is returned as an error; the document
// then holds whatever was resolved before the failure.
func (r *Reader) Read(cls *service.Class) (*openapi.Document, error) {
	if cls == nil || cls.Hidden {
		return r.doc, nil
	}

	visited := map[*service.Class]struct{}{cls: {}}
	err := r.read(cls, &parent{}, visited)
	r.finish()
	return r.doc, err
}

func (r *Reader) read(cls *service.Class, p *parent, visited map[*service.Class]struct{}) error {
	if cls.Hidden {
		return nil
	}
	cc := r.collect(cls, p)

	for _, m := range service.Sorted(cls.AllMethods()) {
		if m.IsHidden() || cls.Overrides(m) {
			continue
		}

		route, err := r.extractRoute(cls, m, p)
		if err != nil {
			return err
		}
		if route.Kind == RouteSkip {
			r.log.Debug("skipping operation",
				"class", cls.Name, "method", m.Identity(), "reason", route.Reason)
			continue
		}

		op := r.buildOperation(cc, m, route, p)

		if route.Kind == RouteSubResource {
			if _, seen := visited[route.Target]; seen {
				r.log.Debug("sub-resource already on the current branch",
					"class", cls.Name, "method", m.Identity(), "target", route.Target.Name)
				continue
			}
			visited[route.Target] = struct{}{}
			err := r.read(route.Target, &parent{
				path:      route.Path,
				sub:       true,
				body:      op.RequestBody,
				responses: op.Responses,
				tags:      cc.tags,
				params:    op.Parameters,
				bindings:  route.Bindings,
			}, visited)
			delete(visited, route.Target)
			if err != nil {
				return err
			}
			continue
		}

		id := m.Name
		if m.Meta != nil && m.Meta.ID != "" {
			id = m.Meta.ID
		}
		owner := route.Path + " " + route.Verb
		op.OperationID = r.uniqueOperationID(id, owner)

		r.cfg.Extensions.Decorate(op, m)
		if !r.doc.AddOperation(route.Path, route.Verb, op) {
			r.log.Warn("dropping operation with unsupported verb",
				"class", cls.Name, "method", m.Identity(), "verb", route.Verb)
			continue
		}
		r.reserveOperationID(op.OperationID, owner)
		r.log.Debug("resolved operation",
			"class", cls.Name, "method", m.Identity(), "verb", route.Verb, "path", route.Path)
	}

	r.tags = append(r.tags, cls.Tags...)
	return nil
}

// collect gathers class-level metadata: document definition fields, security
// schemes, operation tags and field parameters.
func (r *Reader) collect(cls *service.Class, p *parent) *classContext {
	if def := cls.Definition; def != nil {
		if r.doc.Info.IsZero() {
			r.doc.Info = def.Info
		}
		if len(r.doc.Servers) == 0 && len(def.Servers) > 0 {
			r.doc.Servers = def.Servers
		}
		if len(r.doc.Security) == 0 && len(def.Security) > 0 {
			r.doc.Security = def.Security
		}
		if r.doc.ExternalDocs == nil {
			r.doc.ExternalDocs = def.ExternalDocs
		}
		r.tags = append(r.tags, def.Tags...)
	}

	for _, s := range cls.SecuritySchemes {
		if s.Key == "" || s.Scheme == nil {
			continue
		}
		if r.components.SecuritySchemes == nil {
			r.components.SecuritySchemes = make(map[string]*openapi.SecurityScheme)
		}
		if _, ok := r.components.SecuritySchemes[s.Key]; !ok {
			r.components.SecuritySchemes[s.Key] = s.Scheme
		}
	}

	cc := &classContext{cls: cls}
	for _, t := range cls.Tags {
		cc.tags = mergeNames(cc.tags, []string{t.Name})
	}
	if p.sub {
		cc.tags = mergeNames(cc.tags, p.tags)
	}

	ctx := paramContext{class: cls.Name, bindings: p.bindings}
	for _, f := range cls.Fields {
		res := r.resolveParam(f, ctx)
		cc.fields = appendParams(cc.fields, res.params...)
	}
	return cc
}

// finish folds the converter registry into the components, attaches them
// when the document has none, and merges the accumulated tags.
func (r *Reader) finish() {
	if schemas := r.cfg.Converter.Schemas(); len(schemas) > 0 {
		if r.components.Schemas == nil {
			r.components.Schemas = make(map[string]*openapi.Schema, len(schemas))
		}
		maps.Copy(r.components.Schemas, schemas)
	}
	r.doc.AttachComponents(r.components)
	r.doc.MergeTags(r.tags...)
}
