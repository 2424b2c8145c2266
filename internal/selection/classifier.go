// Package selection decides which repository files belong in an export and how their content is labeled.
package selection

import "strings"

const (
	// PlainTextLanguage labels files whose extension has no dedicated fence tag.
	PlainTextLanguage = "plaintext"

	extensionSeparator = "."
)

var languageByExtension = map[string]string{
	"html": "html",
	"css":  "css",
	"js":   "javascript",
	"jsx":  "jsx",
	"ts":   "typescript",
	"tsx":  "tsx",
	"mjs":  "javascript",
	"json": "json",

	"py":  "python",
	"pyx": "python",
	"pyi": "python",

	"rb":    "ruby",
	"php":   "php",
	"java":  "java",
	"kt":    "kotlin",
	"scala": "scala",

	"c":   "c",
	"cpp": "cpp",
	"h":   "c",
	"hpp": "cpp",
	"rs":  "rust",
	"go":  "go",

	"cs":    "csharp",
	"swift": "swift",

	"sh":   "bash",
	"bash": "bash",
	"zsh":  "bash",
	"fish": "fish",
	"ps1":  "powershell",

	"toml": "toml",
	"yaml": "yaml",
	"yml":  "yaml",
	"ini":  "ini",
	"env":  PlainTextLanguage,
	"conf": PlainTextLanguage,

	"md":  "markdown",
	"rst": "rst",
	"txt": PlainTextLanguage,
	"tex": "tex",

	"sql":     "sql",
	"graphql": "graphql",
	"prisma":  "prisma",
}

// allowedExtensions is the only inclusion gate; a labeled extension missing here is still skipped.
var allowedExtensions = map[string]struct{}{
	// Web
	"html": {}, "css": {}, "js": {}, "jsx": {}, "ts": {}, "tsx": {}, "mjs": {}, "json": {},
	// Backend
	"py": {}, "pyx": {}, "pyi": {}, "rb": {}, "php": {}, "java": {}, "kt": {}, "scala": {}, "go": {}, "rs": {}, "cs": {}, "swift": {},
	// Systems
	"c": {}, "cpp": {}, "h": {}, "hpp": {},
	// Shell
	"sh": {}, "bash": {}, "zsh": {}, "fish": {}, "ps1": {},
	// Config
	"toml": {}, "yaml": {}, "yml": {}, "ini": {}, "env": {}, "conf": {},
	// Documentation
	"md": {}, "rst": {}, "txt": {}, "tex": {},
	// Data
	"sql": {}, "graphql": {}, "prisma": {},
}

// Extension returns the lower-cased text after the final dot of filePath.
// A path without a dot yields the whole path lower-cased.
func Extension(filePath string) string {
	lastSeparator := strings.LastIndex(filePath, extensionSeparator)
	if lastSeparator < 0 {
		return strings.ToLower(filePath)
	}
	return strings.ToLower(filePath[lastSeparator+1:])
}

// Classify returns the fence language for filePath. Unknown extensions map to PlainTextLanguage.
func Classify(filePath string) string {
	if language, known := languageByExtension[Extension(filePath)]; known {
		return language
	}
	return PlainTextLanguage
}

// Allowed reports whether the extension of filePath is eligible for export.
func Allowed(filePath string) bool {
	_, allowed := allowedExtensions[Extension(filePath)]
	return allowed
}

// AllowedExtensions lists the eligible extensions in no particular order.
func AllowedExtensions() []string {
	extensions := make([]string, 0, len(allowedExtensions))
	for extension := range allowedExtensions {
		extensions = append(extensions, extension)
	}
	return extensions
}
