package utils

import (
	"bytes"
	"unicode/utf8"
)

// sniffLength bounds how many leading bytes are inspected when detecting binary content.
const sniffLength = 8000

// IsBinary reports whether data appears to hold binary content: a NUL byte or invalid UTF-8 within
// the first sniffLength bytes. A byte order mark marks text regardless of what follows.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if hasByteOrderMark(data) {
		return false
	}
	window := data
	if len(window) > sniffLength {
		window = trimToRuneBoundary(window[:sniffLength])
	}
	if bytes.IndexByte(window, 0) >= 0 {
		return true
	}
	return !utf8.Valid(window)
}

var byteOrderMarks = [][]byte{
	{0xEF, 0xBB, 0xBF},
	{0xFE, 0xFF},
	{0xFF, 0xFE},
}

func hasByteOrderMark(data []byte) bool {
	for _, mark := range byteOrderMarks {
		if bytes.HasPrefix(data, mark) {
			return true
		}
	}
	return false
}

// trimToRuneBoundary drops a trailing partial rune cut by the sniff window.
func trimToRuneBoundary(window []byte) []byte {
	for cut := 0; cut < utf8.UTFMax && len(window) > 0; cut++ {
		if utf8.Valid(window) {
			return window
		}
		window = window[:len(window)-1]
	}
	return window
}
