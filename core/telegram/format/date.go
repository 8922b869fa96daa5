// Package format holds parsing and rendering helpers for user-entered values.
package format

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar date form stored in sessions.
const DateLayout = "2006-01-02"

var flexibleDateLayouts = []string{
	"2006-01-02 15:04",
	"2006-1-2 15:04",
	"2006-01-02",
	"2006-1-2",
	"02.01.2006 15:04",
	"2.1.2006 15:04",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	time.RFC3339,
}

// ParseFlexibleDate tries several common date formats used in Telegram flows.
// It returns the parsed time in the local timezone and true on success.
func ParseFlexibleDate(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites any accepted input as YYYY-MM-DD.
func NormalizeDate(input string) (string, bool) {
	t, ok := ParseFlexibleDate(input)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}
