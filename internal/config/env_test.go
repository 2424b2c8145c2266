package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveToken(t *testing.T) {
	testCases := []struct {
		name        string
		explicit    string
		environment string
		expected    string
	}{
		{name: "explicit wins", explicit: "flag-token", environment: "env-token", expected: "flag-token"},
		{name: "environment fallback", explicit: "  ", environment: "env-token", expected: "env-token"},
		{name: "none", expected: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(TokenEnvironmentVariable, testCase.environment)
			if token := ResolveToken(testCase.explicit); token != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, token)
			}
		})
	}
}

func TestLoadEnvironmentFile(t *testing.T) {
	workingDirectory := t.TempDir()
	if err := LoadEnvironmentFile(workingDirectory); err != nil {
		t.Fatalf("missing .env must not fail: %v", err)
	}

	t.Setenv(TokenEnvironmentVariable, "")
	if err := os.Unsetenv(TokenEnvironmentVariable); err != nil {
		t.Fatalf("unset token: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workingDirectory, EnvironmentFileName), []byte("GITHUB_TOKEN=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := LoadEnvironmentFile(workingDirectory); err != nil {
		t.Fatalf("LoadEnvironmentFile error: %v", err)
	}
	if token := ResolveToken(""); token != "from-dotenv" {
		t.Fatalf("expected token from .env, got %q", token)
	}
}
