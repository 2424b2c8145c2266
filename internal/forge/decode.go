package forge

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const replacementCharacter = "�"

// DecodeText converts raw file bytes to text. A UTF-8 or UTF-16 byte order mark selects the
// encoding and is stripped; without one the bytes are read as UTF-8 with invalid sequences replaced.
func DecodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, transformErr := transform.Bytes(decoder, data)
	if transformErr != nil {
		return strings.ToValidUTF8(string(data), replacementCharacter)
	}
	return string(decoded)
}
