package utils

import (
	"strconv"
	"strings"
)

const (
	sizeStep       = 1024
	byteUnit       = "b"
	wholeUnitLimit = 10
)

var scaledSizeUnits = [...]string{"kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a document length for the run summary: whole bytes below one kilobyte, one
// decimal below ten of a larger unit, whole units above. Negative lengths render as 0b.
func FormatFileSize(byteCount int64) string {
	if byteCount < 0 {
		byteCount = 0
	}
	if byteCount < sizeStep {
		return strconv.FormatInt(byteCount, 10) + byteUnit
	}
	scaled := float64(byteCount) / sizeStep
	unitIndex := 0
	for scaled >= sizeStep && unitIndex < len(scaledSizeUnits)-1 {
		scaled /= sizeStep
		unitIndex++
	}
	precision := 0
	if scaled < wholeUnitLimit {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(scaled, 'f', precision, 64), ".0")
	return formatted + scaledSizeUnits[unitIndex]
}
