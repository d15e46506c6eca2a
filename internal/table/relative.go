package table

import (
	"fmt"
	"strings"
	"time"
)

// PerPage is the server's fixed page size.
const PerPage = 10

// TotalPages returns the number of pages needed for total records, never
// less than one.
func TotalPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PerPage - 1) / PerPage
}

// ClampPage bounds page to [1, TotalPages(total)].
func ClampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total); page > last {
		return last
	}
	return page
}

// Relative renders the age of then as seen at now.
func Relative(now, then time.Time) string {
	secs := int(now.Sub(then) / time.Second)
	switch {
	case secs < 10:
		return "just now"
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

// ParseTimestamp accepts the ISO-8601 variants the server stores. Values
// without a zone are read as UTC. Unparseable input yields the zero time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RelativeLabel formats a row timestamp for display, falling back to the
// raw value when it cannot be parsed.
func RelativeLabel(now time.Time, timestamp string) string {
	t := ParseTimestamp(timestamp)
	if t.IsZero() {
		return timestamp
	}
	return Relative(now, t)
}
