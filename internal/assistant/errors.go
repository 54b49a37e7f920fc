package assistant

import "errors"

var (
	// ErrUnknownKind reports a query for an assistant kind with no
	// configured provider chain.
	ErrUnknownKind = errors.New("assistant: unknown kind")

	// ErrEmptyQuery reports a query with no content after trimming
	// whitespace.
	ErrEmptyQuery = errors.New("assistant: empty query")
)
