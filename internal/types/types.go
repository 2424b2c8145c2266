// Package types defines every cross‑package data structure used by the repoctx CLI.
package types

const (
	CommandExport = "export"
	CommandServe  = "serve"
	CommandInit   = "init"

	// MimeTypeMarkdown is the content type of every assembled document.
	MimeTypeMarkdown = "text/markdown"
)

// EntryKind classifies an item of a repository tree listing.
type EntryKind string

const (
	EntryKindBlob  EntryKind = "blob"
	EntryKindTree  EntryKind = "tree"
	EntryKindOther EntryKind = "other"
)

// ParseEntryKind maps the forge "type" field onto an EntryKind.
func ParseEntryKind(value string) EntryKind {
	switch EntryKind(value) {
	case EntryKindBlob:
		return EntryKindBlob
	case EntryKindTree:
		return EntryKindTree
	default:
		return EntryKindOther
	}
}

// Coordinates identify a repository revision on the forge. They are parsed once per run.
type Coordinates struct {
	Owner      string
	Repository string
	Reference  string
}

// TreeEntry is one item returned by the recursive tree listing.
type TreeEntry struct {
	Path string
	Kind EntryKind
}

// IsBlob reports whether the entry is a file.
func (entry TreeEntry) IsBlob() bool {
	return entry.Kind == EntryKindBlob
}

// ResolvedFile is the decoded content of a selected file.
type ResolvedFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// OutputSummary captures aggregate information about an assembled document.
type OutputSummary struct {
	TotalFiles  int    `json:"totalFiles"`
	TotalBytes  int64  `json:"totalBytes"`
	TotalSize   string `json:"totalSize"`
	TotalTokens int    `json:"totalTokens,omitempty"`
	Model       string `json:"model,omitempty"`
}
