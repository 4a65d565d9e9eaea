package port

import "errors"

// Sentinel errors used across ports. Handlers map these to stable
// machine-readable HTTP error codes; everything else becomes a 500.
var (
	ErrExternalAuth    = errors.New("identity provider rejected the request")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrInvalidToken    = errors.New("token invalid")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDuplicateName   = errors.New("name already in use")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
