package track

import "errors"

// Error kinds. Callers wrap them with context via fmt.Errorf("%w: ...") and
// the HTTP layer maps them with errors.Is.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrUpstream          = errors.New("upstream failure")
)
