package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repoctx/internal/document"
	"github.com/temirov/repoctx/internal/export"
	"github.com/temirov/repoctx/internal/forge"
	"github.com/temirov/repoctx/internal/services/server"
	"github.com/temirov/repoctx/internal/types"
)

type stubExporter struct {
	result  export.Result
	err     error
	session *forge.Session
	request export.Request
}

func (exporter *stubExporter) Run(ctx context.Context, request export.Request) (export.Result, error) {
	exporter.request = request
	return exporter.result, exporter.err
}

func newStubServer(exporter *stubExporter, defaultToken string) server.Server {
	return server.NewServer(server.Config{
		DefaultToken: defaultToken,
		NewExporter: func(session *forge.Session) (server.Exporter, error) {
			exporter.session = session
			return exporter, nil
		},
	})
}

func postExport(t *testing.T, handler http.Handler, body interface{}, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	request := httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(payload))
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestExportErrorStatusMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedKind   string
		expectAuth     bool
		expectExpired  bool
	}{
		{name: "authentication required", err: forge.ErrAuthenticationRequired, expectedStatus: http.StatusUnauthorized, expectedKind: "authentication_required", expectAuth: true},
		{name: "session expired", err: forge.ErrSessionExpired, expectedStatus: http.StatusUnauthorized, expectedKind: "session_expired", expectExpired: true},
		{name: "invalid url", err: fmt.Errorf("%w: nope", forge.ErrInvalidRepositoryURL), expectedStatus: http.StatusBadRequest, expectedKind: "invalid_url"},
		{name: "not found", err: forge.ErrRepositoryNotFound, expectedStatus: http.StatusNotFound, expectedKind: "not_found"},
		{name: "no compatible files", err: export.ErrNoCompatibleFiles, expectedStatus: http.StatusUnprocessableEntity, expectedKind: "no_compatible_files"},
		{name: "forge error", err: &forge.APIError{StatusCode: 500, StatusText: "Internal Server Error"}, expectedStatus: http.StatusBadGateway, expectedKind: "forge_error"},
		{name: "truncated tree", err: forge.ErrTreeTruncated, expectedStatus: http.StatusBadGateway, expectedKind: "tree_truncated"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			exporter := &stubExporter{err: testCase.err}
			response := postExport(t, newStubServer(exporter, "").Handler(), server.ExportRequest{RepositoryURL: "https://github.com/octo/demo"}, "")

			require.Equal(t, testCase.expectedStatus, response.Code)
			require.Equal(t, "application/json", response.Header().Get("Content-Type"))
			var body server.ErrorResponse
			require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
			require.Equal(t, export.UserMessage(testCase.err), body.Error)
			require.Equal(t, testCase.expectedKind, body.Kind)
			require.Equal(t, testCase.expectAuth, body.AuthenticationRequired)
			require.Equal(t, testCase.expectExpired, body.SessionExpired)
		})
	}
}

func TestExportSuccessReturnsMarkdownAttachment(t *testing.T) {
	t.Parallel()

	coordinates := types.Coordinates{Owner: "octo", Repository: "demo", Reference: "feature/x"}
	exporter := &stubExporter{result: export.Result{
		RunID:    "run-1",
		Document: "doc",
		Artifact: document.NewArtifact(coordinates, "doc"),
		Summary:  types.OutputSummary{TotalFiles: 1},
	}}
	response := postExport(t, newStubServer(exporter, "").Handler(), server.ExportRequest{
		RepositoryURL: "https://github.com/octo/demo",
		Branch:        "feature/x",
		Exclude:       []string{"vendor/"},
		Token:         "body-token",
	}, "Bearer header-token")

	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "text/markdown", response.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename=demo_feature-x_context.md`, response.Header().Get("Content-Disposition"))
	require.Equal(t, "run-1", response.Header().Get("X-Repoctx-Run-Id"))
	require.Equal(t, "1", response.Header().Get("X-Repoctx-Files"))
	require.Equal(t, "doc", response.Body.String())
	require.Equal(t, export.Request{RepositoryURL: "https://github.com/octo/demo", Branch: "feature/x", ExclusionPatterns: []string{"vendor/"}}, exporter.request)
	require.Equal(t, "body-token", exporter.session.Credential())
}

func TestExportTokenSources(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		bodyToken     string
		authorization string
		defaultToken  string
		expected      string
	}{
		{name: "body token", bodyToken: "body", authorization: "Bearer header", defaultToken: "default", expected: "body"},
		{name: "authorization header", authorization: "Bearer header", defaultToken: "default", expected: "header"},
		{name: "server default", defaultToken: "default", expected: "default"},
		{name: "anonymous", expected: ""},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			exporter := &stubExporter{err: export.ErrNoCompatibleFiles}
			postExport(t, newStubServer(exporter, testCase.defaultToken).Handler(), server.ExportRequest{Token: testCase.bodyToken}, testCase.authorization)
			require.Equal(t, testCase.expected, exporter.session.Credential())
		})
	}
}

func TestExportRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	handler := newStubServer(&stubExporter{}, "").Handler()

	getResponse := httptest.NewRecorder()
	handler.ServeHTTP(getResponse, httptest.NewRequest(http.MethodGet, "/exports", nil))
	require.Equal(t, http.StatusMethodNotAllowed, getResponse.Code)

	badResponse := httptest.NewRecorder()
	handler.ServeHTTP(badResponse, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString("{")))
	require.Equal(t, http.StatusBadRequest, badResponse.Code)

	unconfigured := server.NewServer(server.Config{}).Handler()
	unconfiguredResponse := httptest.NewRecorder()
	unconfigured.ServeHTTP(unconfiguredResponse, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString("{}")))
	require.Equal(t, http.StatusInternalServerError, unconfiguredResponse.Code)
}

func TestServerRunServesHealthAndShutsDown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportServer := server.NewServer(server.Config{Address: "127.0.0.1:0"})
	addressCh := make(chan string, 1)
	errorCh := make(chan error, 1)
	go func() {
		errorCh <- exportServer.Run(ctx, func(address string) {
			addressCh <- address
		})
	}()

	select {
	case address := <-addressCh:
		client := http.Client{Timeout: 2 * time.Second}
		response, err := client.Get("http://" + address + "/healthz")
		require.NoError(t, err)
		response.Body.Close()
		require.Equal(t, http.StatusOK, response.StatusCode)
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not start")
	}

	cancel()
	require.NoError(t, <-errorCh)
}
