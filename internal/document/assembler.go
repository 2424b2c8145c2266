// Package document renders resolved files into the Markdown context document.
package document

import (
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	pathPrefix = "Path: "
	codeFence  = "```"
	// BlockSeparator terminates every file block.
	BlockSeparator = "-----------\n\n"
)

// Block renders one file as a path header followed by a language-tagged fenced code block.
func Block(file types.ResolvedFile) string {
	var builder strings.Builder
	builder.Grow(len(file.Path) + len(file.Language) + len(file.Content) + len(pathPrefix) + 2*len(codeFence) + len(BlockSeparator) + 6)
	writeBlock(&builder, file)
	return builder.String()
}

// Append returns document with the block for file appended.
func Append(document string, file types.ResolvedFile) string {
	return document + Block(file)
}

// Assemble concatenates the blocks of files in the given order. No files yield an empty document.
func Assemble(files []types.ResolvedFile) string {
	var builder strings.Builder
	for _, file := range files {
		writeBlock(&builder, file)
	}
	return builder.String()
}

func writeBlock(builder *strings.Builder, file types.ResolvedFile) {
	builder.WriteString(pathPrefix)
	builder.WriteString(file.Path)
	builder.WriteString("\n\n")
	builder.WriteString(codeFence)
	builder.WriteString(file.Language)
	builder.WriteString("\n")
	builder.WriteString(file.Content)
	builder.WriteString("\n")
	builder.WriteString(codeFence)
	builder.WriteString("\n\n")
	builder.WriteString(BlockSeparator)
}
