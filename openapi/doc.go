// Package openapi provides the in-memory OpenAPI v3.1.0 document model that
// svcdoc builds, the merge primitives used to assemble it, a reflection
// based JSON Schema generator and JSON/YAML encoding helpers.
//
// The package targets the OpenAPI Specification v3.1.0 and uses JSON Schema
// Draft 2020-12 for schemas.
//
// See: https://spec.openapis.org/oas/v3.1.0
// See: https://json-schema.org/draft/2020-12/json-schema-core
// See: https://json-schema.org/draft/2020-12/json-schema-validation
//
// # Document Assembly
//
// A Document grows incrementally. Operations registered for the same
// path and different methods share one PathItem:
//
//	doc := openapi.NewDocument(openapi.Info{Title: "Widgets", Version: "1.0.0"})
//	doc.AddOperation("/widgets/{id}", "get", getOp)
//	doc.AddOperation("/widgets/{id}", "delete", deleteOp)
//
// MergeTags keeps the first tag seen for every name, and AttachComponents
// sets the components only while the document carries none:
//
//	doc.MergeTags(openapi.Tag{Name: "widgets"}, openapi.Tag{Name: "widgets"})
//	doc.AttachComponents(&openapi.Components{Schemas: schemas})
//
// # Ordered Properties
//
// Object schema properties are held in Properties, which serializes its
// entries in insertion order:
//
//	schema := &openapi.Schema{
//	    Type:       openapi.TypeString("object"),
//	    Properties: openapi.NewProperties("name", nameSchema, "size", sizeSchema),
//	}
//
// # JSON Schema Generation
//
// SchemaGenerator converts Go types to schemas. Named struct types are
// registered as components and referenced through $ref:
//
//	gen := openapi.NewSchemaGenerator()
//	ref := gen.Generate(Widget{})   // {"$ref": "#/components/schemas/Widget"}
//	all := gen.Schemas()            // {"Widget": {...}}
//
// Supported mappings:
//
//   - string -> string
//   - bool -> boolean
//   - int*, uint* -> integer
//   - float32, float64 -> number
//   - []byte -> string (byte)
//   - time.Time -> string (date-time)
//   - uuid.UUID -> string (uuid)
//   - []T, [N]T -> array with items T
//   - map[string]T -> object with additionalProperties T
//   - *T -> type array with "null", or anyOf with "null" for components
//   - struct -> object with properties, registered as a component
//
// # Struct Tags
//
// The generator reads the json tag for property names and omitempty (which
// makes a field optional), the openapi tag for schema keywords and the view
// tag for serialization views:
//
//	type Widget struct {
//	    ID    string `json:"id" openapi:"format=uuid,readOnly"`
//	    Name  string `json:"name" openapi:"minLength=1,maxLength=64,example=Sprocket"`
//	    Notes string `json:"notes,omitempty" view:"detail"`
//	}
//
// A type seen through a view is registered under a suffixed name, for
// example "WidgetSummary" for view "summary".
//
// # Encoding
//
// MarshalJSON indents the document; MarshalYAML emits block-style YAML with
// the same keys and property order as the JSON form:
//
//	data, err := openapi.MarshalYAML(doc)
package openapi
