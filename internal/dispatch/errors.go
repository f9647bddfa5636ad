package dispatch

import "errors"

// Request-level validation sentinels. Their text is part of the /send-bulk
// response contract and is surfaced to clients verbatim.
var (
	ErrMissingAuth       = errors.New("Missing auth: provide an Authorization header or an authHeader field")
	ErrInvalidRecipients = errors.New("recipients must be a non-empty array")
	ErrInvalidBase       = errors.New("base fields must be string, number, boolean, or null")
)

// IsClientError reports whether the error should map to a 400 response
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingAuth) ||
		errors.Is(err, ErrInvalidRecipients) ||
		errors.Is(err, ErrInvalidBase)
}
