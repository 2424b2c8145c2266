package utils_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/repoctx/internal/utils"
)

func TestIsBinary(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{name: "empty", data: nil, expected: false},
		{name: "plain text", data: []byte("package main\n"), expected: false},
		{name: "nul byte", data: []byte{'a', 0x00, 'b'}, expected: true},
		{name: "invalid utf8", data: []byte{0xC3, 0x28}, expected: true},
		{name: "utf16 with bom", data: []byte{0xFF, 0xFE, 'a', 0x00}, expected: false},
		{name: "nul beyond sniff window", data: append([]byte(strings.Repeat("a", 9000)), 0x00), expected: false},
		{name: "rune split by sniff window", data: []byte(strings.Repeat("a", 7999) + "é"), expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.IsBinary(testCase.data); result != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, result)
			}
		})
	}
}

func TestDeduplicatePatterns(t *testing.T) {
	result := utils.DeduplicatePatterns([]string{"vendor/", "test", "vendor/", "docs", "test"})
	expected := []string{"vendor/", "test", "docs"}
	if !reflect.DeepEqual(result, expected) {
		t.Fatalf("expected %v, got %v", expected, result)
	}
}

func TestSplitPatternList(t *testing.T) {
	testCases := []struct {
		name     string
		values   []string
		expected []string
	}{
		{name: "single values", values: []string{"vendor/", "test"}, expected: []string{"vendor/", "test"}},
		{name: "comma separated", values: []string{"vendor/, test", "docs"}, expected: []string{"vendor/", "test", "docs"}},
		{name: "blank items dropped", values: []string{" , ", ""}, expected: []string{}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := utils.SplitPatternList(testCase.values)
			if !reflect.DeepEqual(result, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, result)
			}
		})
	}
}

func TestFileNameSegment(t *testing.T) {
	if result := utils.FileNameSegment("feature/deep/branch"); result != "feature-deep-branch" {
		t.Fatalf("unexpected segment %q", result)
	}
	if result := utils.FileNameSegment("main"); result != "main" {
		t.Fatalf("unexpected segment %q", result)
	}
}

func TestNewApplicationLogger(t *testing.T) {
	testCases := []struct {
		name        string
		level       string
		verbose     bool
		expectDebug bool
		expectError bool
	}{
		{name: "default level", level: "", expectDebug: false},
		{name: "debug level", level: "debug", expectDebug: true},
		{name: "verbose overrides", level: "warn", verbose: true, expectDebug: true},
		{name: "invalid level", level: "chatty", expectError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			logger, err := utils.NewApplicationLogger(testCase.level, testCase.verbose)
			if testCase.expectError {
				if err == nil {
					t.Fatalf("expected error for level %q", testCase.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enabled := logger.Core().Enabled(-1); enabled != testCase.expectDebug {
				t.Fatalf("expected debug enabled %t, got %t", testCase.expectDebug, enabled)
			}
		})
	}
}

func TestGetApplicationVersionPrefersLinkerValue(t *testing.T) {
	original := utils.Version
	t.Cleanup(func() { utils.Version = original })
	utils.Version = " v9.9.9 "
	if version := utils.GetApplicationVersion(); version != "v9.9.9" {
		t.Fatalf("unexpected version %q", version)
	}
}
