package scraper

import (
	"errors"
	"fmt"
)

// ErrMalformedField matches every *MalformedFieldError with errors.Is
var ErrMalformedField = errors.New("malformed field")

// MalformedFieldError reports a listing field whose text is present but does
// not match its required format
type MalformedFieldError struct {
	Article int // position of the listing in the document, starting at 0
	Field   string
	Value   string
	Err     error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("article %d: malformed %s %q: %v", e.Article, e.Field, e.Value, e.Err)
}

func (e *MalformedFieldError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedField) true for any malformed field
func (e *MalformedFieldError) Is(target error) bool {
	return target == ErrMalformedField
}

func malformed(field, value string, err error) *MalformedFieldError {
	return &MalformedFieldError{Field: field, Value: value, Err: err}
}
