package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrNoFix is returned when a source has no position to offer.
var ErrNoFix = errors.New("no position fix available")

// Fix is one position reading. Accuracy is a radius in metres.
type Fix struct {
	Lat      float64
	Lng      float64
	Accuracy float64
	At       time.Time
}

// Reading is one item from a watched source: a fix or an error.
type Reading struct {
	Fix Fix
	Err error
}

// Source produces position fixes.
type Source interface {
	// Watch streams readings until ctx is done, then closes the channel.
	Watch(ctx context.Context) <-chan Reading
	// Current returns a single fix.
	Current(ctx context.Context) (Fix, error)
}

// Validate checks coordinate ranges.
func (f Fix) Validate() error {
	if math.IsNaN(f.Lat) || f.Lat < -90 || f.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", f.Lat)
	}
	if math.IsNaN(f.Lng) || f.Lng < -180 || f.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", f.Lng)
	}
	if math.IsNaN(f.Accuracy) || f.Accuracy < 0 {
		return fmt.Errorf("accuracy %v out of range", f.Accuracy)
	}
	return nil
}

type feedLine struct {
	Class    string   `json:"class"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Lon      *float64 `json:"lon"`
	Accuracy *float64 `json:"accuracy"`
	Epx      *float64 `json:"epx"`
	Epy      *float64 `json:"epy"`
	Time     string   `json:"time"`
	Error    string   `json:"error"`
}

// ParseLine decodes one feed line. Two shapes are understood: the plain
// {"lat","lng","accuracy","time"} form and gpsd TPV reports. A line with an
// "error" field becomes an error reading. ok is false for blank lines and
// records that carry no position, such as gpsd SKY or a TPV without a fix.
func ParseLine(line []byte) (reading Reading, ok bool) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return Reading{}, false
	}

	var raw feedLine
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Reading{Err: fmt.Errorf("parse feed line: %w", err)}, true
	}
	if raw.Error != "" {
		return Reading{Err: fmt.Errorf("position source: %s", raw.Error)}, true
	}
	if raw.Class != "" && raw.Class != "TPV" {
		return Reading{}, false
	}

	lng := raw.Lng
	if lng == nil {
		lng = raw.Lon
	}
	if raw.Lat == nil || lng == nil {
		return Reading{}, false
	}

	fix := Fix{Lat: *raw.Lat, Lng: *lng, At: parseTime(raw.Time)}
	switch {
	case raw.Accuracy != nil:
		fix.Accuracy = *raw.Accuracy
	case raw.Epx != nil || raw.Epy != nil:
		fix.Accuracy = math.Max(deref(raw.Epx), deref(raw.Epy))
	}
	if err := fix.Validate(); err != nil {
		return Reading{Err: fmt.Errorf("parse feed line: %w", err)}, true
	}
	return Reading{Fix: fix}, true
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Now()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
