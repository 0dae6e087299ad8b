package interpreter

import (
	"fmt"
	"time"

	"github.com/goccy/date-detector/internal/timeparser"
	"github.com/goccy/date-detector/types"
)

// MaxFormattedLength is the size in bytes of the output buffer of FormatDate,
// terminator included. Output must be shorter than this.
const MaxFormattedLength = 1024

// FormatDate renders t, broken down in its own location, with pattern.
func FormatDate(t time.Time, pattern string) (string, error) {
	formatted, err := timeparser.Format(pattern, types.ExtTimeFromTime(t))
	if err != nil {
		return "", fmt.Errorf("failed to format date with [%s]: %w", pattern, err)
	}
	if len(formatted) >= MaxFormattedLength {
		return "", fmt.Errorf("formatted date must be shorter than %d bytes", MaxFormattedLength)
	}
	return formatted, nil
}
