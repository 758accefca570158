package reader

import (
	"log/slog"
)

// Config configures a Reader. The zero value is usable; New fills in
// defaults for unset fields.
type Config struct {
	// Logger receives diagnostics about dropped or ambiguous metadata.
	// Default: discards everything.
	Logger *slog.Logger

	// Converter turns parameter, body and return types into schemas.
	// Default: NewConverter().
	Converter SchemaConverter

	// Types decides which return and body types are framework plumbing.
	// Default: NewTypeRegistry().
	Types TypeFilter

	// Extensions run once per finished leaf operation.
	Extensions Chain

	// IgnoredRoutes lists path prefixes whose operations are left out.
	// A prefix matches whole segments: "/internal" matches "/internal" and
	// "/internal/jobs" but not "/internals".
	IgnoredRoutes []string

	// CallWrappers names generic return types of the form Wrapper[Req, Resp]
	// whose second argument is the response type and whose first argument
	// is the request type. Default: ["ServiceCall"].
	CallWrappers []string
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Converter == nil {
		c.Converter = NewConverter()
	}
	if c.Types == nil {
		c.Types = NewTypeRegistry()
	}
	if c.CallWrappers == nil {
		c.CallWrappers = []string{"ServiceCall"}
	}
	return c
}
