package utils

import "strings"

const (
	pathSegmentSeparator   = "/"
	fileNameSegmentReplace = "-"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// SplitPatternList splits comma-separated values and flattens them, dropping blank items.
func SplitPatternList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(item)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

// FileNameSegment replaces path separators so value can appear inside a single file name.
func FileNameSegment(value string) string {
	return strings.ReplaceAll(value, pathSegmentSeparator, fileNameSegmentReplace)
}
