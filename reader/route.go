package reader

import (
	"regexp"
	"slices"
	"strings"

	"github.com/vitalvas/svcdoc/service"
)

// RouteKind classifies an operation.
type RouteKind int

const (
	// RouteSkip operations contribute nothing to the document.
	RouteSkip RouteKind = iota
	// RouteLeaf operations become document operations.
	RouteLeaf
	// RouteSubResource operations point at another class to recurse into.
	RouteSubResource
)

func (k RouteKind) String() string {
	switch k {
	case RouteLeaf:
		return "leaf"
	case RouteSubResource:
		return "sub-resource"
	}
	return "skip"
}

// Route is the resolved routing of one operation.
type Route struct {
	Kind RouteKind

	// Verb is the lower-case HTTP method. For a sub-resource it is the verb
	// inherited by the target's operations, possibly empty.
	Verb string

	// Path is the normalized path template, or the prefix for a sub-resource.
	Path string

	// Patterns maps path variables to the regular expressions declared with
	// "{name:regex}".
	Patterns map[string]string

	// Target is the class a sub-resource route recurses into, with Bindings
	// for its type parameters.
	Target   *service.Class
	Bindings service.Bindings

	// Reason explains a skip.
	Reason string
}

// descriptorRoute is a routing descriptor match cached per method.
type descriptorRoute struct {
	verb string
	path string
}

var (
	// pathVarRegexp matches "{name}" and "{name:regex}" (regex may nest braces
	// one level, as in "{id:[0-9]{4}}").
	pathVarRegexp = regexp.MustCompile(`\{([^{}:]+)(?::((?:[^{}]|\{[^{}]*\})*))?\}`)

	// descriptorVarRegexp matches ":name" placeholders of descriptor patterns.
	descriptorVarRegexp = regexp.MustCompile(`/:([^/]*)`)
)

// extractRoute resolves the verb and path of m in cls.
func (r *Reader) extractRoute(cls *service.Class, m *service.Method, p *parent) (Route, error) {
	methodPath := m.Path
	verb := strings.ToLower(m.Verb)

	dr, ok, err := r.descriptorRoute(cls, m)
	if err != nil {
		return Route{}, err
	}
	if ok {
		methodPath, verb = dr.path, dr.verb
	}

	path := joinPath(cls.Path, methodPath, p.path, p.sub)
	if ignoreOperationPath(path, p.path) && !p.sub {
		return Route{Kind: RouteSkip, Reason: "path equals parent path"}, nil
	}
	if path == "" {
		return Route{Kind: RouteSkip, Reason: "no path"}, nil
	}

	path, patterns := parsePath(path)
	if r.routeIgnored(path) {
		return Route{Kind: RouteSkip, Path: path, Reason: "ignored route"}, nil
	}

	route := Route{Path: path, Patterns: patterns}

	if verb == "" {
		returns, bound := p.bindings.Resolve(m.Returns)
		switch {
		case r.cfg.Types.Ignored(returns.TypeName()) && returns.Class == nil:
			route.Reason = "no verb and ignorable return type"
			return route, nil
		case bound && returns.Class != nil:
			route.Kind = RouteSubResource
			route.Target = returns.Class
			route.Bindings = r.bindTypeParams(returns)
			return route, nil
		}
	}

	if verb == "" {
		route.Reason = "no verb"
		return route, nil
	}
	route.Kind = RouteLeaf
	route.Verb = verb
	return route, nil
}

// descriptorRoute looks m up in the routing descriptor of cls. The match,
// including "no match", is cached for the lifetime of the reader.
func (r *Reader) descriptorRoute(cls *service.Class, m *service.Method) (descriptorRoute, bool, error) {
	if cls.Routes == nil {
		return descriptorRoute{}, false, nil
	}
	if dr, ok := r.verbs[m]; ok {
		return dr, dr.verb != "", nil
	}

	facts, err := r.descriptor(cls)
	if err != nil {
		return descriptorRoute{}, false, err
	}

	var (
		dr      descriptorRoute
		matches int
	)
	for _, f := range facts {
		if !f.Matches(m) {
			continue
		}
		matches++
		if matches == 1 {
			dr = descriptorRoute{
				verb: strings.ToLower(f.Verb),
				path: convertPattern(f.Pattern),
			}
		}
	}
	if matches > 1 {
		r.log.Warn("ambiguous routing descriptor entries, using the first",
			"class", cls.Name, "method", m.Identity(), "matches", matches)
	}

	r.verbs[m] = dr
	return dr, matches > 0, nil
}

// descriptor returns the routing facts of cls, invoking its source at most
// once per reader.
func (r *Reader) descriptor(cls *service.Class) ([]service.RouteFact, error) {
	if facts, ok := r.descriptors[cls]; ok {
		return facts, nil
	}
	facts, err := cls.Routes.Descriptor()
	if err != nil {
		return nil, &StructuralError{Class: cls.Name, Cause: err}
	}
	r.descriptors[cls] = facts
	return facts, nil
}

// bindTypeParams binds the type parameters of t.Class to the arguments of t.
func (r *Reader) bindTypeParams(t service.TypeRef) service.Bindings {
	params := t.Class.TypeParams
	if len(params) == 0 && len(t.Args) == 0 {
		return nil
	}
	if len(params) != len(t.Args) {
		r.log.Error("unexpected generic argument count for sub-resource",
			"class", t.Class.Name, "params", len(params), "args", len(t.Args))
		return nil
	}
	b := make(service.Bindings, len(params))
	for i, name := range params {
		b[name] = t.Args[i]
	}
	return b
}

func (r *Reader) routeIgnored(path string) bool {
	return slices.ContainsFunc(r.cfg.IgnoredRoutes, func(prefix string) bool {
		prefix = normalizePath(prefix)
		if prefix == "/" {
			return true
		}
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	})
}

// convertPattern rewrites a descriptor pattern to a path template:
// the query suffix is dropped and "/:name" becomes "/{name}".
func convertPattern(pattern string) string {
	if i := strings.IndexByte(pattern, '?'); i >= 0 {
		pattern = pattern[:i]
	}
	return descriptorVarRegexp.ReplaceAllString(pattern, "/{$1}")
}

// joinPath composes parent, class and method paths. The class path is left
// out for sub-resources since the parent path already carries it. It
// returns "" when there is nothing to join.
func joinPath(classPath, methodPath, parentPath string, sub bool) string {
	if classPath == "" && methodPath == "" && parentPath == "" {
		return ""
	}
	var b strings.Builder
	appendPathComponent(&b, parentPath)
	if !sub {
		appendPathComponent(&b, classPath)
	}
	appendPathComponent(&b, methodPath)
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func appendPathComponent(b *strings.Builder, component string) {
	if component == "" || component == "/" {
		return
	}
	cur := b.String()
	if !strings.HasPrefix(component, "/") && (len(cur) == 0 || cur[len(cur)-1] != '/') {
		b.WriteByte('/')
	}
	b.WriteString(strings.TrimSuffix(component, "/"))
}

// ignoreOperationPath reports whether path is empty or equal to the parent
// path, once both are normalized.
func ignoreOperationPath(path, parentPath string) bool {
	switch {
	case path == "" && parentPath == "":
		return true
	case path == "" || parentPath == "":
		return false
	}
	return normalizePath(path) == normalizePath(parentPath)
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}

// parsePath strips regular expressions from "{name:regex}" placeholders,
// returning the plain template and the expression per variable.
func parsePath(tpl string) (string, map[string]string) {
	var patterns map[string]string
	path := pathVarRegexp.ReplaceAllStringFunc(tpl, func(match string) string {
		sub := pathVarRegexp.FindStringSubmatch(match)
		name := strings.TrimSpace(sub[1])
		if re := strings.TrimSpace(sub[2]); re != "" {
			if patterns == nil {
				patterns = make(map[string]string)
			}
			patterns[name] = re
		}
		return "{" + name + "}"
	})
	return path, patterns
}
