package tracker

import (
	"fmt"
	"strings"
	"time"
)

// reportTimestampLayout matches the millisecond ISO-8601 form browsers emit
// from Date.toISOString.
const reportTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Summary mirrors the payload returned by /table-meta.
type Summary struct {
	Total  int    `json:"total"`
	Newest string `json:"newest"`
}

// Equal reports whether both fields match exactly.
func (s Summary) Equal(other Summary) bool {
	return s.Total == other.Total && s.Newest == other.Newest
}

func (s Summary) String() string {
	return fmt.Sprintf("{total:%d newest:%q}", s.Total, s.Newest)
}

// Device describes the submitting client.
type Device struct {
	UserAgent string `json:"userAgent"`
	IsMobile  bool   `json:"isMobile"`
}

// Label returns the short form shown on the position card.
func (d Device) Label() string {
	if d.IsMobile {
		return "mobile"
	}
	return "desktop"
}

// Report is the body posted to /report.
type Report struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Device    Device  `json:"device"`
	Timestamp string  `json:"timestamp"`
}

// NewReport builds a report stamped with the given submission time.
func NewReport(lat, lng, accuracy float64, device Device, at time.Time) Report {
	return Report{
		Lat:       lat,
		Lng:       lng,
		Accuracy:  accuracy,
		Device:    device,
		Timestamp: FormatTimestamp(at),
	}
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(reportTimestampLayout)
}

// ReportResult mirrors the /report response. Duplicate positions are
// acknowledged with status "skipped".
type ReportResult struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Skipped reports whether the server discarded the report as a duplicate.
func (r ReportResult) Skipped() bool {
	return strings.EqualFold(r.Status, "skipped")
}

// PageFlags are the gate activation hints the server renders onto the
// observer page body.
type PageFlags struct {
	WaitForNew bool
	Baseline   string
}

// DeleteResult mirrors /delete-records.
type DeleteResult struct {
	Removed    int      `json:"removed"`
	Timestamps []string `json:"timestamps"`
	Total      int      `json:"total"`
	Newest     string   `json:"newest"`
}

// UndeleteResult mirrors /undelete-records.
type UndeleteResult struct {
	Restored   int      `json:"restored"`
	Timestamps []string `json:"timestamps"`
	Message    string   `json:"message"`
}

// ClearResult mirrors /clear-deleted.
type ClearResult struct {
	Cleared      bool `json:"cleared"`
	RemovedCount int  `json:"removed_count"`
}

// RateLimitError is returned when the server refuses a request with 429.
type RateLimitError struct {
	Path       string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("api %s rate limited, retry after %s", e.Path, e.RetryAfter)
}

type timestampsRequest struct {
	Timestamps []string `json:"timestamps"`
}

type rateLimitResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}
