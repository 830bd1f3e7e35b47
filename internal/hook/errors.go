package hook

import "errors"

var (
	// ErrEmptyRequest is returned when stdin carried no payload or JSON null.
	ErrEmptyRequest = errors.New("empty hook request")

	// ErrMalformedRequest is returned when the payload is not a JSON object.
	ErrMalformedRequest = errors.New("malformed hook request")
)
