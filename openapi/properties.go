package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Properties is the "properties" keyword of an object schema. Unlike a
// plain map it keeps insertion order, so synthesized schemas serialize
// their fields in the order they were declared.
//
// See: https://json-schema.org/draft/2020-12/json-schema-core#section-10.3.2.1
type Properties struct {
	keys   []string
	values map[string]*Schema
}

// NewProperties returns properties populated from name/schema pairs in order.
func NewProperties(pairs ...any) *Properties {
	p := &Properties{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		schema, _ := pairs[i+1].(*Schema)
		p.Set(name, schema)
	}
	return p
}

// Set adds or replaces a property. A replaced property keeps its position.
func (p *Properties) Set(name string, schema *Schema) {
	if p.values == nil {
		p.values = make(map[string]*Schema)
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = schema
}

// Get returns the named property schema, or nil.
func (p *Properties) Get(name string) *Schema {
	if p == nil {
		return nil
	}
	return p.values[name]
}

// Keys returns property names in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// MarshalJSON writes the properties as an object in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(p.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the order of its keys.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("openapi: properties must be an object, got %v", tok)
	}

	*p = Properties{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("openapi: invalid property name %v", tok)
		}
		var schema Schema
		if err := dec.Decode(&schema); err != nil {
			return fmt.Errorf("openapi: property %q: %w", name, err)
		}
		p.Set(name, &schema)
	}
	_, err = dec.Token()
	return err
}
