package definition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is matched by every error reporting a definition file that
// cannot be loaded.
var ErrInvalid = errors.New("definition: invalid file")

// Error reports a problem with a definition file.
type Error struct {
	// Path is the file the definition was read from, if any.
	Path string
	// Field locates the offending element, e.g. "services[0].methods[1].name".
	Field string
	// Message describes the problem.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("definition: ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil && e.Message == "" {
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// validationError converts validator field errors into one *Error whose
// Field is the first offending field. Further errors are appended to the
// message with their own field paths.
func validationError(err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return &Error{Cause: err}
	}

	messages := make([]string, 0, len(valErrs))
	for i, ve := range valErrs {
		msg := formatValidationError(ve)
		if i > 0 {
			msg = fieldPath(ve) + ": " + msg
		}
		messages = append(messages, msg)
	}
	return &Error{
		Field:   fieldPath(valErrs[0]),
		Message: strings.Join(messages, "; "),
		Cause:   err,
	}
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required", "required_without":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %q", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
