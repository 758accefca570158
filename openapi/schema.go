package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Exampler can be implemented by types to provide an example value for
// their component schema.
//
//	func (w Widget) OpenAPIExample() any {
//	    return Widget{ID: "w-1", Name: "Sprocket"}
//	}
type Exampler interface {
	OpenAPIExample() any
}

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// title upper-cases the first letter of s. A Caser is stateful, so one is
// built per call.
func title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// schemaKey identifies one generated component: a Go type seen through
// an optional serialization view.
type schemaKey struct {
	t    reflect.Type
	view string
}

// SchemaGenerator converts Go types to JSON Schema objects and collects
// named struct types into a component schemas map for $ref deduplication.
//
// A view restricts struct fields to those whose `view` tag lists it:
//
//	type Widget struct {
//	    ID    string `json:"id"`
//	    Notes string `json:"notes" view:"detail"`
//	}
//
// Generating Widget with view "summary" omits Notes and registers the
// component as "WidgetSummary". Fields without a view tag are always kept.
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object (schemas)
type SchemaGenerator struct {
	schemas   map[string]*Schema
	visited   map[schemaKey]bool
	typeNames map[schemaKey]string
	nameTypes map[string]schemaKey
}

// NewSchemaGenerator creates a new schema generator.
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		schemas:   make(map[string]*Schema),
		visited:   make(map[schemaKey]bool),
		typeNames: make(map[schemaKey]string),
		nameTypes: make(map[string]schemaKey),
	}
}

// Schemas returns the collected component schemas.
func (g *SchemaGenerator) Schemas() map[string]*Schema {
	return g.schemas
}

// Register stores an externally built component schema under name unless
// the name is already taken.
func (g *SchemaGenerator) Register(name string, schema *Schema) {
	if _, ok := g.schemas[name]; ok {
		return
	}
	g.schemas[name] = schema
}

// Generate produces a JSON Schema for the given Go value.
func (g *SchemaGenerator) Generate(v any) *Schema {
	if v == nil {
		return nil
	}
	return g.GenerateType(reflect.TypeOf(v), "")
}

// GenerateType produces a JSON Schema for t as seen through view. An empty
// view keeps every field.
func (g *SchemaGenerator) GenerateType(t reflect.Type, view string) *Schema {
	if t == nil {
		return nil
	}
	return g.generateType(t, view)
}

func (g *SchemaGenerator) generateType(t reflect.Type, view string) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != timeType {
		key := schemaKey{t: t, view: effectiveView(t, view)}
		if name := g.schemaName(key); name != "" {
			if !g.visited[key] {
				g.visited[key] = true
				schema := g.generateStructSchema(t, key.view)

				if ex, ok := reflect.New(t).Interface().(Exampler); ok {
					schema.Example = ex.OpenAPIExample()
				}

				g.schemas[name] = schema
			}

			ref := &Schema{Ref: "#/components/schemas/" + name}
			if nullable {
				return &Schema{AnyOf: []*Schema{ref, {Type: TypeString("null")}}}
			}
			return ref
		}
	}

	schema := g.generateInlineType(t, view)
	if nullable && schema != nil {
		applyNullable(schema)
	}
	return schema
}

func (g *SchemaGenerator) generateInlineType(t reflect.Type, view string) *Schema {
	switch t {
	case timeType:
		return &Schema{Type: TypeString("string"), Format: "date-time"}
	case uuidType:
		return &Schema{Type: TypeString("string"), Format: "uuid"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeString("boolean")}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeString("integer")}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: TypeString("number")}

	case reflect.String:
		return &Schema{Type: TypeString("string")}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeString("string"), Format: "byte"}
		}
		return &Schema{Type: TypeString("array"), Items: g.generateType(t.Elem(), view)}

	case reflect.Array:
		return &Schema{Type: TypeString("array"), Items: g.generateType(t.Elem(), view)}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeString("object")}
		}
		return &Schema{Type: TypeString("object"), AdditionalProperties: g.generateType(t.Elem(), view)}

	case reflect.Struct:
		return g.generateStructSchema(t, view)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

func (g *SchemaGenerator) generateStructSchema(t reflect.Type, view string) *Schema {
	schema := &Schema{
		Type:       TypeString("object"),
		Properties: &Properties{},
	}

	g.collectFields(t, schema, view, false)

	if schema.Properties.Len() == 0 {
		schema.Properties = nil
	}
	return schema
}

// collectFields walks exported fields into schema. Fields of pointer-embedded
// structs are all optional since the embedded pointer may be nil.
func (g *SchemaGenerator) collectFields(t reflect.Type, schema *Schema, view string, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || !inView(field, view) {
			continue
		}

		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					g.collectFields(ft, schema, view, allOptional || isPtr)
					continue
				}
			}
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := g.generateType(field.Type, view)
		if fieldSchema == nil {
			continue
		}

		applyOpenAPITag(fieldSchema, field.Tag.Get("openapi"))

		if opts.stringEncode && fieldSchema.Ref == "" && len(fieldSchema.AnyOf) == 0 {
			applyStringEncoding(fieldSchema)
		}

		schema.Properties.Set(name, fieldSchema)

		if !opts.omitempty && !allOptional {
			schema.Required = append(schema.Required, name)
		}
	}
}

// inView reports whether field is visible in view.
func inView(field reflect.StructField, view string) bool {
	tag, ok := field.Tag.Lookup("view")
	if !ok || view == "" {
		return true
	}
	for v := range strings.SplitSeq(tag, ",") {
		if strings.TrimSpace(v) == view {
			return true
		}
	}
	return false
}

// effectiveView drops the view for struct types that declare no view tags,
// so they share a single component across views.
func effectiveView(t reflect.Type, view string) string {
	if view == "" {
		return ""
	}
	for i := range t.NumField() {
		if _, ok := t.Field(i).Tag.Lookup("view"); ok {
			return view
		}
	}
	return ""
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyOpenAPITag applies `openapi:"key=value,..."` constraints to schema.
func applyOpenAPITag(schema *Schema, tag string) {
	if tag == "" {
		return
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "description":
			schema.Description = value
		case "example":
			schema.Example = ParseValue(schema, value)
		case "format":
			schema.Format = value
		case "title":
			schema.Title = value
		case "pattern":
			schema.Pattern = value
		case "minimum":
			schema.Minimum = parseFloat(value)
		case "maximum":
			schema.Maximum = parseFloat(value)
		case "exclusiveMinimum":
			schema.ExclusiveMinimum = parseFloat(value)
		case "exclusiveMaximum":
			schema.ExclusiveMaximum = parseFloat(value)
		case "multipleOf":
			schema.MultipleOf = parseFloat(value)
		case "minLength":
			schema.MinLength = parseInt(value)
		case "maxLength":
			schema.MaxLength = parseInt(value)
		case "minItems":
			schema.MinItems = parseInt(value)
		case "maxItems":
			schema.MaxItems = parseInt(value)
		case "enum":
			values := strings.Split(value, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = v
			}
		case "const":
			schema.Const = ParseValue(schema, value)
		case "deprecated":
			schema.Deprecated = true
		case "readOnly":
			schema.ReadOnly = true
		case "writeOnly":
			schema.WriteOnly = true
		case "uniqueItems":
			schema.UniqueItems = true
		}
	}
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// ParseValue converts a literal written in a tag or definition to the Go
// type matching the schema type. Values that do not parse are returned as is.
func ParseValue(schema *Schema, value string) any {
	types := schema.Type.Values()
	if len(types) == 0 {
		return value
	}

	switch types[0] {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique component name for key. Types sharing a
// simple name across packages get the package's last path segment as a
// prefix, then a numeric suffix if that still collides. Views are appended
// title-cased, so Widget seen through "summary" becomes WidgetSummary.
func (g *SchemaGenerator) schemaName(key schemaKey) string {
	t := key.t
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	if name, ok := g.typeNames[key]; ok {
		return name
	}

	if key.view != "" {
		simple += title(key.view)
	}

	name := simple
	if existing, ok := g.nameTypes[name]; ok && existing != key {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := g.nameTypes[name]; ok && existing != key {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := g.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	g.typeNames[key] = name
	g.nameTypes[name] = key
	return name
}

// pkgPrefix title-cases the last segment of a package path
// ("example.com/shop/models" -> "Models").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if pkgPath == "" {
		return ""
	}
	pkgPath = strings.NewReplacer("-", "_", ".", "_").Replace(pkgPath)
	return title(pkgPath)
}

// sanitizeSchemaName flattens generic instantiations:
// "Page[Widget]" -> "PageWidget", "Page[[]Widget]" -> "PageWidgetList".
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}
	return result
}

// applyNullable turns "string" into ["string", "null"].
func applyNullable(schema *Schema) {
	if schema.Ref != "" {
		return
	}
	if types := schema.Type.Values(); len(types) > 0 {
		schema.Type = TypeArray(append(types, "null")...)
	}
}

// applyStringEncoding mirrors the encoding/json ",string" option.
func applyStringEncoding(schema *Schema) {
	types := schema.Type.Values()
	if len(types) == 0 {
		return
	}
	for _, t := range types {
		if t == "null" {
			schema.Type = TypeArray("string", "null")
			return
		}
	}
	schema.Type = TypeString("string")
}

// Clone returns a shallow copy of s with its own Required slice, so callers
// may annotate the copy without touching a shared schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Required = append([]string(nil), s.Required...)
	return &c
}
