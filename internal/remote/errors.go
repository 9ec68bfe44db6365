package remote

import "errors"

var (
	// ErrNotFound indicates no document exists for the identity.
	ErrNotFound = errors.New("remote document not found")

	// ErrUnavailable indicates the document service could not be reached
	// or kept failing after retries.
	ErrUnavailable = errors.New("remote document service unavailable")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("remote request timed out")

	// ErrUnauthorized indicates the service rejected the credentials.
	ErrUnauthorized = errors.New("remote request unauthorized")

	// ErrRejected indicates the service refused the request as invalid.
	ErrRejected = errors.New("remote request rejected")

	// ErrMalformed indicates a document whose payload cannot be decoded.
	ErrMalformed = errors.New("malformed remote document")
)
