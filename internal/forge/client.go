// Package forge talks to a GitHub-compatible API: it lists repository trees, resolves file content
// and applies the authentication escalation policy to failed requests.
package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v68/github"
	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the public GitHub API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"
	defaultUserAgent  = "repoctx"
	defaultAPITimeout = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	APIBaseURL     string
	UserAgent      string
	Timeout        time.Duration
	Transport      http.RoundTripper
	Logger         *zap.Logger
	AllowTruncated bool
}

// Client is the authenticated fetcher. Every request reads the credential from the session at send time.
type Client struct {
	api            *gogithub.Client
	session        *Session
	logger         *zap.Logger
	allowTruncated bool
}

// NewClient builds a Client bound to session.
func NewClient(session *Session, options Options) (*Client, error) {
	if session == nil {
		session = NewSession("")
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: sessionTransport{session: session, base: options.Transport},
	}
	api := gogithub.NewClient(httpClient)
	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	api.UserAgent = userAgent
	if baseErr := applyBaseURL(api, options.APIBaseURL); baseErr != nil {
		return nil, baseErr
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:            api,
		session:        session,
		logger:         logger,
		allowTruncated: options.AllowTruncated,
	}, nil
}

func applyBaseURL(api *gogithub.Client, baseURL string) error {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" || trimmed == DefaultAPIBaseURL {
		return nil
	}
	parsed, parseErr := url.Parse(strings.TrimRight(trimmed, "/") + "/")
	if parseErr != nil {
		return fmt.Errorf("parse API base URL %s: %w", baseURL, parseErr)
	}
	api.BaseURL = parsed
	return nil
}

// Escalate applies the escalation policy to an unsuccessful status code.
// firstAttempt is true only for the first request of a run; authenticated reports whether the
// request carried a credential. A 401 clears the session credential.
func Escalate(session *Session, statusCode int, firstAttempt bool, authenticated bool) error {
	return escalate(session, statusCode, "", firstAttempt, authenticated)
}

func escalate(session *Session, statusCode int, statusLine string, firstAttempt bool, authenticated bool) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		if firstAttempt && !authenticated {
			return ErrAuthenticationRequired
		}
		if statusCode == http.StatusUnauthorized {
			if session != nil {
				session.Clear()
			}
			return ErrSessionExpired
		}
		if statusCode == http.StatusNotFound {
			return ErrRepositoryNotFound
		}
	}
	return &APIError{StatusCode: statusCode, StatusText: statusText(statusCode, statusLine)}
}

// statusText names statusCode, falling back to the reason phrase of statusLine ("520 Origin Error")
// and then to the bare code for codes net/http does not know.
func statusText(statusCode int, statusLine string) string {
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	code := strconv.Itoa(statusCode)
	if reason := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(statusLine), code)); reason != "" {
		return reason
	}
	return code
}

// failure converts a go-github error into the policy outcome.
func (client *Client) failure(ctx context.Context, response *gogithub.Response, callErr error, firstAttempt bool, authenticated bool) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	httpResponse := failedResponse(response, callErr)
	if httpResponse == nil {
		return &APIError{StatusText: callErr.Error()}
	}
	statusCode := httpResponse.StatusCode
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, callErr)
	}
	client.logger.Debug("forge request failed", zap.Int("status", statusCode), zap.Bool("first_attempt", firstAttempt), zap.Bool("authenticated", authenticated))
	return escalate(client.session, statusCode, httpResponse.Status, firstAttempt, authenticated)
}

// failedResponse finds the HTTP response behind a go-github error, or nil for transport failures.
func failedResponse(response *gogithub.Response, callErr error) *http.Response {
	if response != nil && response.Response != nil {
		return response.Response
	}
	var errorResponse *gogithub.ErrorResponse
	if errors.As(callErr, &errorResponse) && errorResponse.Response != nil {
		return errorResponse.Response
	}
	var rateLimitError *gogithub.RateLimitError
	if errors.As(callErr, &rateLimitError) && rateLimitError.Response != nil {
		return rateLimitError.Response
	}
	var abuseError *gogithub.AbuseRateLimitError
	if errors.As(callErr, &abuseError) && abuseError.Response != nil {
		return abuseError.Response
	}
	return nil
}
