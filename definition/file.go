// Package definition loads service trees described in YAML.
//
// A definition file declares document metadata, named schemas and service
// classes with their methods, parameters, responses and an optional
// runtime routing descriptor:
//
//	info: {title: Widgets, version: 1.0.0}
//	schemas:
//	  Widget:
//	    type: object
//	    properties:
//	      id: {type: string}
//	services:
//	  - name: WidgetService
//	    tags: [{name: widgets}]
//	    routes:
//	      - {call: getWidget, method: GET, path: "/api/widgets/:id?fields"}
//	    methods:
//	      - name: getWidget
//	        returns: {name: ServiceCall, args: [NotUsed, Widget]}
//	        params:
//	          - {name: id, type: string, in: path}
//
// Type names resolve to services first (making the method a sub-resource
// pointer when it declares no verb), then to the converter's primitives and
// containers, then to the names under schemas.
package definition

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// File is the root of a definition file.
type File struct {
	Info         Info                  `yaml:"info"`
	Servers      []Server              `yaml:"servers" validate:"dive"`
	Security     []map[string][]string `yaml:"security"`
	Tags         []Tag                 `yaml:"tags" validate:"dive"`
	ExternalDocs *ExternalDocs         `yaml:"externalDocs"`

	// Schemas are named schemas in OpenAPI schema syntax.
	Schemas map[string]yaml.Node `yaml:"schemas"`

	Services []Service `yaml:"services" validate:"required,min=1,dive"`
}

// Info is the document info block.
type Info struct {
	Title       string `yaml:"title" validate:"required"`
	Version     string `yaml:"version" validate:"required"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
}

// Server is a target host.
type Server struct {
	URL         string `yaml:"url" validate:"required"`
	Description string `yaml:"description"`
}

// Tag is a named group of operations.
type Tag struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
}

// ExternalDocs references external documentation.
type ExternalDocs struct {
	URL         string `yaml:"url" validate:"required,url"`
	Description string `yaml:"description"`
}

// SecurityScheme declares a security scheme of a service.
type SecurityScheme struct {
	Type             string `yaml:"type" validate:"required,oneof=apiKey http mutualTLS oauth2 openIdConnect"`
	Description      string `yaml:"description"`
	Name             string `yaml:"name"`
	In               string `yaml:"in" validate:"omitempty,oneof=query header cookie"`
	Scheme           string `yaml:"scheme"`
	BearerFormat     string `yaml:"bearerFormat"`
	OpenIDConnectURL string `yaml:"openIdConnectUrl"`
}

// Service declares one service class.
type Service struct {
	Name       string `yaml:"name" validate:"required"`
	Path       string `yaml:"path"`
	Hidden     bool   `yaml:"hidden"`
	Deprecated bool   `yaml:"deprecated"`

	// SubResource marks a class that is only reachable through another
	// service and is not read on its own.
	SubResource bool `yaml:"subResource"`

	// Extends names the supertype service whose methods are inherited.
	Extends string `yaml:"extends"`

	TypeParams      []string                  `yaml:"typeParams"`
	Tags            []Tag                     `yaml:"tags" validate:"dive"`
	SecuritySchemes map[string]SecurityScheme `yaml:"securitySchemes" validate:"dive"`
	Security        []map[string][]string     `yaml:"security"`
	Servers         []Server                  `yaml:"servers" validate:"dive"`
	ExternalDocs    *ExternalDocs             `yaml:"externalDocs"`
	Produces        []string                  `yaml:"produces"`
	Consumes        []string                  `yaml:"consumes"`
	Responses       []Response                `yaml:"responses" validate:"dive"`
	Fields          []Param                   `yaml:"fields" validate:"dive"`
	Routes          []Route                   `yaml:"routes" validate:"dive"`
	Methods         []Method                  `yaml:"methods" validate:"dive"`
}

// Route is one runtime routing descriptor entry.
type Route struct {
	// Call is a method name or a full identity "name(T1,T2)".
	Call   string `yaml:"call" validate:"required"`
	Method string `yaml:"method"`
	Path   string `yaml:"path" validate:"required"`
}

// Method declares one operation of a service.
type Method struct {
	Name     string    `yaml:"name" validate:"required"`
	Path     string    `yaml:"path"`
	Verb     string    `yaml:"verb" validate:"omitempty,oneof=GET PUT POST DELETE OPTIONS HEAD PATCH TRACE get put post delete options head patch trace"`
	Params   []Param   `yaml:"params" validate:"dive"`
	Returns  *TypeSpec `yaml:"returns"`
	Produces []string  `yaml:"produces"`
	Consumes []string  `yaml:"consumes"`
	View     string    `yaml:"view"`

	Deprecated bool `yaml:"deprecated"`
	Hidden     bool `yaml:"hidden"`

	OperationID  string                `yaml:"operationId"`
	Summary      string                `yaml:"summary"`
	Description  string                `yaml:"description"`
	Tags         []string              `yaml:"tags"`
	Security     []map[string][]string `yaml:"security"`
	ExternalDocs *ExternalDocs         `yaml:"externalDocs"`
	Responses    []Response            `yaml:"responses" validate:"dive"`
	IgnoreView   bool                  `yaml:"ignoreView"`
}

// Param declares a method parameter or a service field parameter.
type Param struct {
	Name string    `yaml:"name"`
	Type *TypeSpec `yaml:"type" validate:"required"`

	// In is the parameter location. "body" declares the request body
	// explicitly; an empty location with no other annotations declares an
	// undocumented framework value.
	In string `yaml:"in" validate:"omitempty,oneof=query path header cookie form body"`

	Default  string `yaml:"default"`
	Injected bool   `yaml:"injected"`
	View     string `yaml:"view"`

	Description    string    `yaml:"description"`
	Required       *bool     `yaml:"required"`
	Deprecated     bool      `yaml:"deprecated"`
	Hidden         bool      `yaml:"hidden"`
	Style          string    `yaml:"style"`
	Explode        *bool     `yaml:"explode"`
	Example        any       `yaml:"example"`
	Implementation *TypeSpec `yaml:"implementation"`
	ContentType    string    `yaml:"contentType"`
}

// Response declares a response of a method or service.
type Response struct {
	Status      string    `yaml:"status" validate:"required"`
	Description string    `yaml:"description"`
	ContentType string    `yaml:"contentType"`
	Type        *TypeSpec `yaml:"type"`
}

// TypeSpec is a structural type reference. It is written either as a bare
// name ("string") or as a mapping with a name and type arguments, or with
// var naming a service type parameter.
type TypeSpec struct {
	Name string     `yaml:"name" validate:"required_without=Var"`
	Var  string     `yaml:"var"`
	Args []TypeSpec `yaml:"args" validate:"dive"`
}

// UnmarshalYAML accepts the bare-name shorthand.
func (t *TypeSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = strings.TrimSpace(value.Value)
		return nil
	}
	type plain TypeSpec
	return value.Decode((*plain)(t))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads and validates the definition file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: fmt.Sprintf("read file: %v", err), Cause: err}
	}
	f, err := Parse(data)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse decodes and validates a definition. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, &Error{Message: fmt.Sprintf("decode yaml: %v", err), Cause: err}
	}
	if err := validate.Struct(&f); err != nil {
		return nil, validationError(err)
	}
	return &f, nil
}
