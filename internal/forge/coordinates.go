package forge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	// DefaultHost is the forge web host repository URLs are matched against.
	DefaultHost = "github.com"
	// DefaultReference is used when no branch is supplied.
	DefaultReference = "main"

	gitSuffix = ".git"
)

// ParseRepositoryURL extracts owner and repository from a URL of the form <host>/<owner>/<repository>[.git].
// The match is not anchored at the start so scheme and credentials are tolerated.
func ParseRepositoryURL(rawURL string, host string, reference string) (types.Coordinates, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	pattern, compileErr := regexp.Compile(`(?i)` + regexp.QuoteMeta(host) + `/([^/\s]+)/([^/\s]+)/?$`)
	if compileErr != nil {
		return types.Coordinates{}, fmt.Errorf("%w: %v", ErrInvalidRepositoryURL, compileErr)
	}
	matches := pattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if matches == nil {
		return types.Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidRepositoryURL, rawURL)
	}
	owner := matches[1]
	repository := strings.TrimSuffix(matches[2], gitSuffix)
	if repository == "" {
		return types.Coordinates{}, fmt.Errorf("%w: %q", ErrInvalidRepositoryURL, rawURL)
	}
	trimmedReference := strings.TrimSpace(reference)
	if trimmedReference == "" {
		trimmedReference = DefaultReference
	}
	return types.Coordinates{
		Owner:      owner,
		Repository: repository,
		Reference:  trimmedReference,
	}, nil
}
