package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/export"
)

const testRepositoryURL = "https://github.com/octo/demo"

type stubCopier struct {
	copied []string
}

func (copier *stubCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

type forgeStub struct {
	mutex          sync.Mutex
	requestedPaths []string
	treeStatus     int
	authorization  []string
}

func (stub *forgeStub) serve(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"main.go":       "package main",
		"docs/guide.md": "# Guide",
	}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		stub.mutex.Lock()
		stub.requestedPaths = append(stub.requestedPaths, request.URL.Path)
		stub.authorization = append(stub.authorization, request.Header.Get("Authorization"))
		stub.mutex.Unlock()
		writer.Header().Set("Content-Type", "application/json")
		if strings.Contains(request.URL.Path, "/git/trees/") {
			if stub.treeStatus != 0 {
				writer.WriteHeader(stub.treeStatus)
				_, _ = writer.Write([]byte(`{"message":"Not Found"}`))
				return
			}
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"tree": []map[string]string{
					{"path": "main.go", "type": "blob"},
					{"path": "docs", "type": "tree"},
					{"path": "docs/guide.md", "type": "blob"},
					{"path": "package-lock.json", "type": "blob"},
				},
			})
			return
		}
		filePath := strings.TrimPrefix(request.URL.Path, "/repos/octo/demo/contents/")
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"type":     "file",
			"path":     filePath,
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(files[filePath])),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func executeCommand(t *testing.T, options Options, arguments ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.TokenEnvironmentVariable, "")
	if options.WorkingDirectory == "" {
		options.WorkingDirectory = t.TempDir()
	}
	if options.HomeDirectory == "" {
		options.HomeDirectory = t.TempDir()
	}
	rootCommand := NewRootCommand(options)
	var stdout, stderr bytes.Buffer
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	err := rootCommand.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestExportWritesDocumentToStandardOutput(t *testing.T) {
	stub := &forgeStub{}
	server := stub.serve(t)

	stdout, stderr, err := executeCommand(t, Options{}, "export", testRepositoryURL, "--api-url", server.URL, "--output", "-", "-e", "DOCS/")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	expected := "Path: main.go\n\n```go\npackage main\n```\n\n-----------\n\n"
	if stdout != expected {
		t.Fatalf("unexpected document:\n%q", stdout)
	}
	if !strings.HasPrefix(stderr, "Summary: 1 files, ") {
		t.Fatalf("unexpected summary %q", stderr)
	}
}

func TestExportExclusionFlagHasLongNameAndShorthand(t *testing.T) {
	exportCommand, _, findErr := NewRootCommand(Options{}).Find([]string{"export"})
	if findErr != nil {
		t.Fatalf("find export command: %v", findErr)
	}
	exclusionFlag := exportCommand.Flags().Lookup("exclude")
	if exclusionFlag == nil || exclusionFlag.Shorthand != "e" {
		t.Fatalf("expected --exclude with shorthand -e, got %+v", exclusionFlag)
	}
	if exportCommand.Flags().Lookup("e") != nil {
		t.Fatalf("expected no long flag named e")
	}

	stub := &forgeStub{}
	server := stub.serve(t)
	stdout, _, err := executeCommand(t, Options{}, "export", testRepositoryURL, "--api-url", server.URL, "--output", "-", "--exclude", "docs/")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if strings.Contains(stdout, "docs/guide.md") || !strings.Contains(stdout, "Path: main.go") {
		t.Fatalf("--exclude not applied:\n%s", stdout)
	}
}

func TestExportWritesArtifactAndCopies(t *testing.T) {
	stub := &forgeStub{}
	server := stub.serve(t)
	workingDirectory := t.TempDir()
	copier := &stubCopier{}

	_, stderr, err := executeCommand(t, Options{WorkingDirectory: workingDirectory, Copier: copier},
		"export", testRepositoryURL, "--api-url", server.URL, "--branch", "feature/x", "--copy", "--workers", "2")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	artifactPath := filepath.Join(workingDirectory, "demo_feature-x_context.md")
	content, readErr := os.ReadFile(artifactPath)
	if readErr != nil {
		t.Fatalf("read artifact: %v", readErr)
	}
	if !strings.Contains(string(content), "Path: main.go") || !strings.Contains(string(content), "Path: docs/guide.md") {
		t.Fatalf("unexpected artifact content:\n%s", content)
	}
	if strings.Contains(string(content), "package-lock.json") {
		t.Fatalf("lockfile must be excluded")
	}
	if len(copier.copied) != 1 || copier.copied[0] != string(content) {
		t.Fatalf("expected the document to be copied once")
	}
	if !strings.Contains(stderr, artifactPath+", clipboard") {
		t.Fatalf("summary missing destinations: %q", stderr)
	}
	if stub.requestedPaths[0] != "/repos/octo/demo/git/trees/feature/x" {
		t.Fatalf("unexpected tree request %s", stub.requestedPaths[0])
	}
}

func TestExportFailures(t *testing.T) {
	testCases := []struct {
		name            string
		repositoryURL   string
		treeStatus      int
		expectedKind    export.ErrorKind
		expectedMessage string
		expectRequests  bool
	}{
		{
			name:            "anonymous not found asks for a token",
			repositoryURL:   testRepositoryURL,
			treeStatus:      http.StatusNotFound,
			expectedKind:    export.KindAuthenticationRequired,
			expectedMessage: "This might be a private repository or you are rate limited. Please login with GitHub to access it. Provide a token with --token or the GITHUB_TOKEN environment variable.",
			expectRequests:  true,
		},
		{
			name:            "invalid url",
			repositoryURL:   "not-a-url",
			expectedKind:    export.KindInvalidURL,
			expectedMessage: "Invalid GitHub repository URL",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			stub := &forgeStub{treeStatus: testCase.treeStatus}
			server := stub.serve(t)
			_, _, err := executeCommand(t, Options{}, "export", testCase.repositoryURL, "--api-url", server.URL, "--output", "-")
			var userError *UserError
			if !errors.As(err, &userError) {
				t.Fatalf("expected UserError, got %v", err)
			}
			if userError.Kind != testCase.expectedKind {
				t.Fatalf("expected kind %s, got %s", testCase.expectedKind, userError.Kind)
			}
			if userError.Error() != testCase.expectedMessage {
				t.Fatalf("unexpected message %q", userError.Error())
			}
			if (len(stub.requestedPaths) > 0) != testCase.expectRequests {
				t.Fatalf("unexpected forge requests %v", stub.requestedPaths)
			}
		})
	}
}

func TestExportUsesConfigurationDefaultsAndFlagToken(t *testing.T) {
	stub := &forgeStub{}
	server := stub.serve(t)
	workingDirectory := t.TempDir()
	configuration := "export:\n  branch: develop\n  exclude: [docs/]\nforge:\n  api_url: " + server.URL + "\n"
	if err := os.WriteFile(filepath.Join(workingDirectory, config.LocalConfigFileName), []byte(configuration), 0o600); err != nil {
		t.Fatalf("write configuration: %v", err)
	}

	stdout, _, err := executeCommand(t, Options{WorkingDirectory: workingDirectory}, "export", testRepositoryURL, "--output", "-", "--token", "Bearer secret")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if strings.Contains(stdout, "docs/guide.md") {
		t.Fatalf("configured exclusion not applied:\n%s", stdout)
	}
	if stub.requestedPaths[0] != "/repos/octo/demo/git/trees/develop" {
		t.Fatalf("configured branch not applied: %s", stub.requestedPaths[0])
	}
	for _, authorization := range stub.authorization {
		if authorization != "Bearer secret" {
			t.Fatalf("unexpected authorization header %q", authorization)
		}
	}
}

func TestInitCommandWritesConfiguration(t *testing.T) {
	workingDirectory := t.TempDir()
	stdout, _, err := executeCommand(t, Options{WorkingDirectory: workingDirectory}, "init")
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	expectedPath := filepath.Join(workingDirectory, config.LocalConfigFileName)
	if !strings.Contains(stdout, expectedPath) {
		t.Fatalf("unexpected init output %q", stdout)
	}
	if _, err := os.Stat(expectedPath); err != nil {
		t.Fatalf("configuration not written: %v", err)
	}
	if _, _, err := executeCommand(t, Options{WorkingDirectory: workingDirectory}, "init"); err == nil {
		t.Fatalf("expected init without --force to refuse overwriting")
	}
	if _, _, err := executeCommand(t, Options{WorkingDirectory: workingDirectory}, "init", "--force"); err != nil {
		t.Fatalf("init --force error: %v", err)
	}
}

func TestVersionFlag(t *testing.T) {
	stdout, _, err := executeCommand(t, Options{}, "--version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(stdout, "repoctx version: ") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}
