package document

import (
	"fmt"

	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const artifactFileNameFormat = "%s_%s_context.md"

// Artifact is the deliverable form of a document.
type Artifact struct {
	FileName string
	MimeType string
	Data     []byte
}

// FileName returns the artifact name for coordinates: {repository}_{reference}_context.md with path
// separators in the reference replaced.
func FileName(coordinates types.Coordinates) string {
	return fmt.Sprintf(artifactFileNameFormat, coordinates.Repository, utils.FileNameSegment(coordinates.Reference))
}

// NewArtifact wraps document as a Markdown artifact named after coordinates.
func NewArtifact(coordinates types.Coordinates, document string) Artifact {
	return Artifact{
		FileName: FileName(coordinates),
		MimeType: types.MimeTypeMarkdown,
		Data:     []byte(document),
	}
}
