package document

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is matched by every ParseError via errors.Is.
var ErrInvalidDocument = errors.New("invalid document")

// ParseError reports why an imported document was rejected. Field is a
// JSON path such as "raters[1].sheet2[4]"; it is empty for syntax errors.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse document"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets callers test for ErrInvalidDocument without unpacking the error.
func (e *ParseError) Is(target error) bool { return target == ErrInvalidDocument }

func fieldError(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
