package openapi

import (
	"strings"
)

// Methods lists the HTTP methods a PathItem can hold, in serialization order.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// SetOperation assigns op to the field for method (case-insensitive).
// It reports false for methods a PathItem has no field for.
func (p *PathItem) SetOperation(method string, op *Operation) bool {
	switch strings.ToLower(method) {
	case "get":
		p.Get = op
	case "put":
		p.Put = op
	case "post":
		p.Post = op
	case "delete":
		p.Delete = op
	case "options":
		p.Options = op
	case "head":
		p.Head = op
	case "patch":
		p.Patch = op
	case "trace":
		p.Trace = op
	default:
		return false
	}
	return true
}

// Operation returns the operation registered for method, or nil.
func (p *PathItem) Operation(method string) *Operation {
	switch strings.ToLower(method) {
	case "get":
		return p.Get
	case "put":
		return p.Put
	case "post":
		return p.Post
	case "delete":
		return p.Delete
	case "options":
		return p.Options
	case "head":
		return p.Head
	case "patch":
		return p.Patch
	case "trace":
		return p.Trace
	}
	return nil
}

// Operations calls fn for every populated method in Methods order.
func (p *PathItem) Operations(fn func(method string, op *Operation)) {
	for _, m := range Methods {
		if op := p.Operation(m); op != nil {
			fn(m, op)
		}
	}
}

// AddOperation merges op into the path item for path under method. Other
// methods already registered on the path are kept; an operation registered
// for the same path and method is replaced.
func (d *Document) AddOperation(path, method string, op *Operation) bool {
	if d.Paths == nil {
		d.Paths = make(map[string]*PathItem)
	}
	item, ok := d.Paths[path]
	if !ok {
		item = &PathItem{}
	}
	if !item.SetOperation(method, op) {
		return false
	}
	d.Paths[path] = item
	return true
}

// MergeTags appends tags whose names are not yet present. Existing tags
// keep their position and content.
func (d *Document) MergeTags(tags ...Tag) {
	seen := make(map[string]bool, len(d.Tags)+len(tags))
	merged := make([]Tag, 0, len(d.Tags)+len(tags))
	for _, group := range [][]Tag{d.Tags, tags} {
		for _, tag := range group {
			if seen[tag.Name] {
				continue
			}
			seen[tag.Name] = true
			merged = append(merged, tag)
		}
	}
	if len(merged) == 0 {
		return
	}
	d.Tags = merged
}

// AttachComponents sets c as the document components when c has entries
// and the document carries none yet. It reports whether c was attached.
func (d *Document) AttachComponents(c *Components) bool {
	if c.IsEmpty() || !d.Components.IsEmpty() {
		return false
	}
	d.Components = c
	return true
}
