package reader

import (
	"github.com/vitalvas/svcdoc/openapi"
)

// encodingStyles are the styles an Encoding object accepts.
var encodingStyles = map[string]bool{
	"form":           true,
	"spaceDelimited": true,
	"pipeDelimited":  true,
	"deepObject":     true,
}

// mergeForm combines form parameters into one object schema request body.
// Properties keep encounter order. It returns nil for an empty list.
func mergeForm(form []*openapi.Parameter) *bodyFragment {
	if len(form) == 0 {
		return nil
	}

	schema := &openapi.Schema{
		Type:       openapi.TypeString("object"),
		Properties: &openapi.Properties{},
	}
	var encoding map[string]*openapi.Encoding

	for _, p := range form {
		prop := p.Schema
		if prop != nil && p.Description != "" && prop.Description == "" {
			prop = prop.Clone()
			prop.Description = p.Description
		}
		schema.Properties.Set(p.Name, prop)
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}

		if enc := formEncoding(p); enc != nil {
			if encoding == nil {
				encoding = make(map[string]*openapi.Encoding)
			}
			encoding[p.Name] = enc
		}
	}

	return &bodyFragment{schema: schema, encoding: encoding}
}

// formEncoding returns the encoding of a form property, or nil when its
// style and explode are the serialization defaults.
func formEncoding(p *openapi.Parameter) *openapi.Encoding {
	style := p.Style
	if !encodingStyles[style] {
		style = ""
	}

	effective := style
	if effective == "" {
		effective = "form"
	}
	defaultExplode := effective == "form"

	customStyle := style != "" && style != "form"
	customExplode := p.Explode != nil && *p.Explode != defaultExplode
	if !customStyle && !customExplode {
		return nil
	}

	enc := &openapi.Encoding{Style: style}
	if p.Explode != nil {
		explode := *p.Explode
		enc.Explode = &explode
	}
	return enc
}
