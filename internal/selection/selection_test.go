package selection_test

import (
	"testing"

	"github.com/temirov/repoctx/internal/selection"
)

func TestClassifyMapsExtensionsToLanguages(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		path             string
		expectedLanguage string
	}{
		{name: "python", path: "src/a.py", expectedLanguage: "python"},
		{name: "module javascript", path: "web/index.mjs", expectedLanguage: "javascript"},
		{name: "upper case extension", path: "README.MD", expectedLanguage: "markdown"},
		{name: "header maps to c", path: "include/x.h", expectedLanguage: "c"},
		{name: "zsh maps to bash", path: "scripts/setup.zsh", expectedLanguage: "bash"},
		{name: "env is plain text", path: "config/.env", expectedLanguage: selection.PlainTextLanguage},
		{name: "unknown extension", path: "assets/logo.svg", expectedLanguage: selection.PlainTextLanguage},
		{name: "no extension", path: "Makefile", expectedLanguage: selection.PlainTextLanguage},
		{name: "dot in directory only", path: "pkg.v2/LICENSE", expectedLanguage: selection.PlainTextLanguage},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if language := selection.Classify(testCase.path); language != testCase.expectedLanguage {
				t.Fatalf("Classify(%q) = %q, expected %q", testCase.path, language, testCase.expectedLanguage)
			}
		})
	}
}

func TestIncludeAppliesAllowlistAndExclusions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		path     string
		patterns []string
		expected bool
	}{
		{name: "allowlisted without patterns", path: "src/a.py", expected: true},
		{name: "allowlisted with unrelated pattern", path: "src/a.py", patterns: []string{"vendor/"}, expected: true},
		{name: "extension outside allowlist", path: "assets/logo.png", expected: false},
		{name: "extension outside allowlist ignores patterns", path: "assets/logo.png", patterns: []string{"nothing"}, expected: false},
		{name: "extension-less file", path: "Dockerfile", expected: false},
		{name: "lockfile artifact", path: "package-lock.json", expected: false},
		{name: "nested lockfile is not the artifact", path: "web/package-lock.json", expected: true},
		{name: "substring pattern", path: "node_modules/x.js", patterns: []string{"node_modules/"}, expected: false},
		{name: "pattern anywhere in path", path: "pkg/test/helper.go", patterns: []string{"test/"}, expected: false},
		{name: "case insensitive pattern", path: "Docs/Guide.md", patterns: []string{"docs/"}, expected: false},
		{name: "case insensitive path", path: "docs/guide.md", patterns: []string{"DOCS"}, expected: false},
		{name: "blank pattern ignored", path: "main.go", patterns: []string{"  "}, expected: true},
		{name: "pattern order irrelevant", path: "main.go", patterns: []string{"zzz", "MAIN"}, expected: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if included := selection.Include(testCase.path, testCase.patterns); included != testCase.expected {
				t.Fatalf("Include(%q, %v) = %t, expected %t", testCase.path, testCase.patterns, included, testCase.expected)
			}
		})
	}
}

func TestAllowedExtensionsCoverAllowlist(t *testing.T) {
	t.Parallel()

	extensions := selection.AllowedExtensions()
	if len(extensions) != 42 {
		t.Fatalf("expected 42 allowlisted extensions, got %d", len(extensions))
	}
	for _, extension := range extensions {
		if !selection.Include("file."+extension, nil) {
			t.Fatalf("expected file.%s to be included", extension)
		}
	}
}

func TestFilterPatternsAreNormalized(t *testing.T) {
	t.Parallel()

	filter := selection.NewFilter([]string{" Vendor/ ", "", "TEST"})
	patterns := filter.Patterns()
	expected := []string{"vendor/", "test"}
	if len(patterns) != len(expected) {
		t.Fatalf("expected %d patterns, got %v", len(expected), patterns)
	}
	for index := range expected {
		if patterns[index] != expected[index] {
			t.Fatalf("pattern %d = %q, expected %q", index, patterns[index], expected[index])
		}
	}
}
