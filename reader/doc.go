// Package reader resolves service classes into an OpenAPI v3.1.0 document.
//
// A Reader walks the operations of a service.Class in a fixed order (name,
// then parameter count, then parameter type names), resolves the route of
// each one and either adds it to the document or, when it points at another
// class, recurses into that class with the path, verb, parameters, body and
// responses of the pointer as inherited context.
//
//	r := reader.New(nil, reader.Config{Logger: slog.Default()})
//	doc, err := r.Read(widgets)
//	if err != nil {
//	    return err
//	}
//	data, err := openapi.MarshalYAML(doc)
//
// # Routing
//
// The route of an operation comes from the class path joined with the
// method path. When the class carries a routing descriptor
// (service.RoutingDescriptorSource) and one of its facts matches the
// operation, the fact's verb and pattern take precedence: "/:id" becomes
// "/{id}" and the query suffix is dropped. The descriptor is queried once
// per class and every match is cached per operation; several matching facts
// log a warning and the first one wins.
//
// An operation without a verb whose return type designates a class is a
// sub-resource pointer. An operation without a verb returning an ignorable
// type (see TypeFilter) is skipped, as is any other operation without a
// verb. A pointer carries no verb of its own, so the operations of a
// sub-resource declare theirs.
//
// Placeholders written as "{name:regex}" are normalized to "{name}" and the
// expression is set as the pattern of the matching path parameter schema.
//
// # Cycles
//
// Classes on the current recursion branch are not entered again, so two
// classes pointing at each other terminate. A class leaves the branch when
// its subtree is done and may be visited again from another branch.
//
// # Parameters and Bodies
//
// Parameters without annotations are framework-injected values and are not
// documented. Location parameters (query, path, header, cookie) become
// operation parameters; form parameters are merged into one object schema
// request body with per-property encoding; a parameter without a location
// becomes the request body. Only the first body survives.
//
// # Document Assembly
//
// Operations for the same path and different verbs share one path item.
// Tags are deduplicated by name, first seen wins. Components are attached
// only when the document carries none, so a pre-populated document keeps
// its own. Operation ids are made unique with "_1", "_2"... suffixes.
//
// # Errors
//
// Malformed metadata is logged through Config.Logger and the offending
// element is dropped. Only a routing descriptor that fails is returned,
// as a *StructuralError matching ErrStructural.
package reader
