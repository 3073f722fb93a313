package model

import (
	"fmt"
	"regexp"
	"time"
)

// WatermarkLayout is the timestamp layout the remote store uses for its
// `updated`/`created` fields. It sorts lexicographically, so watermark
// comparisons compose into remote filter clauses as plain string comparisons.
const WatermarkLayout = "2006-01-02 15:04:05.000Z"

// Supported timestamp layouts, in order of likelihood.
var supportedTimestampLayouts = []string{
	WatermarkLayout,
	"2006-01-02 15:04:05.999Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d{1,9})?(?:Z|[+-]\d{2}:?\d{2})?$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
}

// IsTimestampString reports whether s looks like a timestamp, without the
// cost of a full parse.
func IsTimestampString(s string) bool {
	if len(s) < 10 || len(s) > 35 {
		return false
	}
	for _, p := range timestampPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// ParseTimestamp parses a remote timestamp string in any supported layout.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range supportedTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", s)
}

// FormatWatermark renders t in the remote store's timestamp layout (UTC).
func FormatWatermark(t time.Time) string {
	return t.UTC().Format(WatermarkLayout)
}
