package selection

import "strings"

// LockfileArtifactPath is always excluded regardless of its extension.
const LockfileArtifactPath = "package-lock.json"

// Filter decides whether a repository path survives the allowlist and exclusion patterns.
type Filter struct {
	exclusionPatterns []string
}

// NewFilter prepares a Filter. Patterns are matched as case-insensitive substrings; blank patterns are dropped.
func NewFilter(exclusionPatterns []string) Filter {
	prepared := make([]string, 0, len(exclusionPatterns))
	for _, pattern := range exclusionPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		prepared = append(prepared, strings.ToLower(trimmedPattern))
	}
	return Filter{exclusionPatterns: prepared}
}

// Include reports whether filePath should be exported.
func (filter Filter) Include(filePath string) bool {
	if !Allowed(filePath) {
		return false
	}
	if filePath == LockfileArtifactPath {
		return false
	}
	lowerPath := strings.ToLower(filePath)
	for _, pattern := range filter.exclusionPatterns {
		if strings.Contains(lowerPath, pattern) {
			return false
		}
	}
	return true
}

// Patterns returns the normalized exclusion patterns.
func (filter Filter) Patterns() []string {
	return append([]string(nil), filter.exclusionPatterns...)
}

// Include is a convenience wrapper around NewFilter(exclusionPatterns).Include(filePath).
func Include(filePath string, exclusionPatterns []string) bool {
	return NewFilter(exclusionPatterns).Include(filePath)
}
