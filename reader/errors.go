package reader

import (
	"errors"
	"fmt"
)

// ErrStructural is matched by errors reporting an input graph that is not
// well formed, as opposed to metadata that is merely missing.
var ErrStructural = errors.New("reader: structural violation")

// StructuralError reports a class whose routing descriptor could not be
// obtained.
type StructuralError struct {
	// Class is the name of the offending class.
	Class string
	// Cause is the error returned by the descriptor source.
	Cause error
}

// Error returns a human-readable error message.
func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("reader: class %q: routing descriptor unavailable", e.Class)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrStructural.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}
