package export

import (
	"context"
	"errors"

	"github.com/temirov/repoctx/internal/forge"
)

// ErrNoCompatibleFiles reports a run whose filtered tree produced no document content.
var ErrNoCompatibleFiles = errors.New("no compatible files found")

// ErrorKind is the stable category of a failed run.
type ErrorKind string

const (
	KindNone                   ErrorKind = "none"
	KindInvalidURL             ErrorKind = "invalid_url"
	KindAuthenticationRequired ErrorKind = "authentication_required"
	KindSessionExpired         ErrorKind = "session_expired"
	KindNotFound               ErrorKind = "not_found"
	KindForgeError             ErrorKind = "forge_error"
	KindNoCompatibleFiles      ErrorKind = "no_compatible_files"
	KindDecodeFailure          ErrorKind = "decode_failure"
	KindMalformedPayload       ErrorKind = "malformed_payload"
	KindTreeTruncated          ErrorKind = "tree_truncated"
	KindCanceled               ErrorKind = "canceled"
	KindInternal               ErrorKind = "internal"
)

const (
	messageInvalidURL             = "Invalid GitHub repository URL"
	messageAuthenticationRequired = "This might be a private repository or you are rate limited. Please login with GitHub to access it."
	messageSessionExpired         = "Session expired. Please login again."
	messageNotFound               = "Repository not found. Please check the URL and try again."
	messageForgeErrorPrefix       = "GitHub Error: "
	messageNoCompatibleFiles      = "No compatible files found in the repository."
	messageDecodeFailure          = "A file in the repository could not be decoded."
	messageMalformedPayload       = "GitHub returned an unexpected response."
	messageTreeTruncated          = "The repository tree is too large to list completely. Enable truncated listings to export a partial document."
	messageCanceled               = "Export canceled."
)

var sentinelKinds = []struct {
	target error
	kind   ErrorKind
}{
	{target: forge.ErrInvalidRepositoryURL, kind: KindInvalidURL},
	{target: forge.ErrAuthenticationRequired, kind: KindAuthenticationRequired},
	{target: forge.ErrSessionExpired, kind: KindSessionExpired},
	{target: forge.ErrRepositoryNotFound, kind: KindNotFound},
	{target: ErrNoCompatibleFiles, kind: KindNoCompatibleFiles},
	{target: forge.ErrDecodeFailure, kind: KindDecodeFailure},
	{target: forge.ErrMalformedPayload, kind: KindMalformedPayload},
	{target: forge.ErrTreeTruncated, kind: KindTreeTruncated},
	{target: context.Canceled, kind: KindCanceled},
	{target: context.DeadlineExceeded, kind: KindCanceled},
}

// ClassifyError returns the kind of err. A nil error is KindNone.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, sentinel := range sentinelKinds {
		if errors.Is(err, sentinel.target) {
			return sentinel.kind
		}
	}
	var apiError *forge.APIError
	if errors.As(err, &apiError) {
		return KindForgeError
	}
	return KindInternal
}

// UserMessage returns the single human-readable message shown for err.
func UserMessage(err error) string {
	switch ClassifyError(err) {
	case KindNone:
		return ""
	case KindInvalidURL:
		return messageInvalidURL
	case KindAuthenticationRequired:
		return messageAuthenticationRequired
	case KindSessionExpired:
		return messageSessionExpired
	case KindNotFound:
		return messageNotFound
	case KindForgeError:
		var apiError *forge.APIError
		errors.As(err, &apiError)
		return messageForgeErrorPrefix + apiError.StatusText
	case KindNoCompatibleFiles:
		return messageNoCompatibleFiles
	case KindDecodeFailure:
		return messageDecodeFailure
	case KindMalformedPayload:
		return messageMalformedPayload
	case KindTreeTruncated:
		return messageTreeTruncated
	case KindCanceled:
		return messageCanceled
	default:
		return err.Error()
	}
}
