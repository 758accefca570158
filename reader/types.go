package reader

import (
	"strings"
)

// TypeFilter decides which structural types are framework plumbing rather
// than documentable data. Operations without a verb whose return type is
// ignored are skipped instead of being followed as sub-resources, and
// ignored types never produce request or response schemas.
type TypeFilter interface {
	Ignored(typeName string) bool
}

// TypeRegistry is a TypeFilter of exact names and name prefixes.
type TypeRegistry struct {
	names    map[string]bool
	prefixes []string
}

// defaultIgnored are the marker types skipped by every registry.
var defaultIgnored = []string{
	"",
	"void",
	"NotUsed",
	"Done",
	"error",
	"context.Context",
	"http.ResponseWriter",
	"*http.Request",
}

// NewTypeRegistry returns a registry that ignores the built-in marker types
// and the given names. A name ending in "." or "/" ignores the whole
// namespace it prefixes.
func NewTypeRegistry(names ...string) *TypeRegistry {
	r := &TypeRegistry{names: make(map[string]bool)}
	r.Skip(defaultIgnored...)
	r.Skip(names...)
	return r
}

// Skip registers more names or prefixes as ignored.
func (r *TypeRegistry) Skip(names ...string) *TypeRegistry {
	for _, n := range names {
		if strings.HasSuffix(n, ".") || strings.HasSuffix(n, "/") {
			r.prefixes = append(r.prefixes, n)
			continue
		}
		r.names[n] = true
	}
	return r
}

// Ignored implements TypeFilter. Matching is case-insensitive for "void".
func (r *TypeRegistry) Ignored(typeName string) bool {
	name := strings.TrimSpace(typeName)
	if r.names[name] || strings.EqualFold(name, "void") {
		return true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
