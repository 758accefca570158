package reader

import (
	"strings"

	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

// SchemaConverter turns structural types into document schemas. Named
// schemas it produces are registered as a side effect and reported by
// Schemas; the reader decides whether to attach them to the document.
type SchemaConverter interface {
	// Resolve returns the schema for t seen through view, or nil when t
	// cannot be converted.
	Resolve(t service.TypeRef, view string) *openapi.Schema

	// Schemas returns every named schema registered so far.
	Schemas() map[string]*openapi.Schema
}

// primitive describes a structural type name with a fixed schema.
type primitive struct {
	typ    string
	format string
}

var primitives = map[string]primitive{
	"string":    {"string", ""},
	"char":      {"string", ""},
	"int":       {"integer", "int32"},
	"int32":     {"integer", "int32"},
	"integer":   {"integer", "int32"},
	"short":     {"integer", "int32"},
	"long":      {"integer", "int64"},
	"int64":     {"integer", "int64"},
	"bool":      {"boolean", ""},
	"boolean":   {"boolean", ""},
	"number":    {"number", ""},
	"float":     {"number", "float"},
	"double":    {"number", "double"},
	"decimal":   {"number", ""},
	"date":      {"string", "date"},
	"date-time": {"string", "date-time"},
	"datetime":  {"string", "date-time"},
	"uuid":      {"string", "uuid"},
	"byte":      {"string", "byte"},
	"binary":    {"string", "binary"},
	"file":      {"string", "binary"},
	"object":    {"object", ""},
}

// Converter is the default SchemaConverter. Go types are converted by
// reflection through an openapi.SchemaGenerator; structural names resolve
// to primitives, to containers ("array", "list", "set", "map") or to
// schemas declared with Define.
type Converter struct {
	gen  *openapi.SchemaGenerator
	defs map[string]*openapi.Schema
}

// NewConverter returns a converter with no declared schemas.
func NewConverter() *Converter {
	return &Converter{
		gen:  openapi.NewSchemaGenerator(),
		defs: make(map[string]*openapi.Schema),
	}
}

// Define declares a named schema. It is registered as a component the
// first time a TypeRef names it.
func (c *Converter) Define(name string, schema *openapi.Schema) *Converter {
	c.defs[name] = schema
	return c
}

// Schemas implements SchemaConverter.
func (c *Converter) Schemas() map[string]*openapi.Schema {
	return c.gen.Schemas()
}

// Resolve implements SchemaConverter.
func (c *Converter) Resolve(t service.TypeRef, view string) *openapi.Schema {
	switch {
	case t.Schema != nil:
		return t.Schema
	case t.Go != nil:
		return c.gen.GenerateType(t.Go, view)
	case t.Class != nil, t.Var != "":
		return nil
	}
	return c.resolveName(t, view)
}

func (c *Converter) resolveName(t service.TypeRef, view string) *openapi.Schema {
	name := t.Name
	if p, ok := primitives[strings.ToLower(name)]; ok && len(t.Args) == 0 {
		return &openapi.Schema{Type: openapi.TypeString(p.typ), Format: p.format}
	}

	switch strings.ToLower(name) {
	case "array", "list", "set", "seq":
		if len(t.Args) != 1 {
			return nil
		}
		items := c.Resolve(t.Args[0], view)
		if items == nil {
			return nil
		}
		s := &openapi.Schema{Type: openapi.TypeString("array"), Items: items}
		if strings.EqualFold(name, "set") {
			s.UniqueItems = true
		}
		return s
	case "map":
		if len(t.Args) == 0 || len(t.Args) > 2 {
			return nil
		}
		values := c.Resolve(t.Args[len(t.Args)-1], view)
		if values == nil {
			return nil
		}
		return &openapi.Schema{Type: openapi.TypeString("object"), AdditionalProperties: values}
	case "optional":
		if len(t.Args) != 1 {
			return nil
		}
		return c.Resolve(t.Args[0], view)
	}

	if def, ok := c.defs[name]; ok {
		c.gen.Register(name, def)
		return &openapi.Schema{Ref: "#/components/schemas/" + name}
	}
	return nil
}
