package forge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRepositoryURL reports a repository URL that does not match <host>/<owner>/<repository>.
	ErrInvalidRepositoryURL = errors.New("invalid repository URL")
	// ErrAuthenticationRequired is a recoverable signal: the caller should obtain a credential and retry.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrSessionExpired reports that the held credential was rejected and has been cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrRepositoryNotFound reports a missing repository, reference or path.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrDecodeFailure reports file content that could not be decoded.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrMalformedPayload reports a forge response missing a required field.
	ErrMalformedPayload = errors.New("malformed forge payload")
	// ErrTreeTruncated reports a recursive listing the forge cut short.
	ErrTreeTruncated = errors.New("repository tree listing truncated")
)

// APIError is a forge failure that is not covered by the escalation policy.
type APIError struct {
	StatusCode int
	StatusText string
}

// Error returns the error string.
func (apiError *APIError) Error() string {
	if apiError.StatusCode == 0 {
		return fmt.Sprintf("forge error: %s", apiError.StatusText)
	}
	return fmt.Sprintf("forge error: %d %s", apiError.StatusCode, apiError.StatusText)
}
