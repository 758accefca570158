package reader

import (
	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

// Extension post-processes a finished leaf operation before it is added to
// the document. It receives the rest of the chain and decides whether to
// pass control on by calling next.Decorate.
type Extension interface {
	Decorate(op *openapi.Operation, m *service.Method, next Chain)
}

// ExtensionFunc adapts a function to Extension.
type ExtensionFunc func(op *openapi.Operation, m *service.Method, next Chain)

// Decorate implements Extension.
func (f ExtensionFunc) Decorate(op *openapi.Operation, m *service.Method, next Chain) {
	f(op, m, next)
}

// Chain is an ordered list of extensions.
type Chain []Extension

// Decorate invokes the first extension with the remainder of the chain.
func (c Chain) Decorate(op *openapi.Operation, m *service.Method) {
	if len(c) == 0 {
		return
	}
	c[0].Decorate(op, m, c[1:])
}
