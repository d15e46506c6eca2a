// Package device builds the descriptor sent with every position report.
package device

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/pinpoint/internal/tracker"
)

var mobilePattern = regexp.MustCompile(`(?i)Mobi|Android|iPhone|iPad|iPod`)

// Overrides replace detected values when set.
type Overrides struct {
	UserAgent string
	Mobile    *bool
}

// Detect returns the descriptor for this process. deviceID should be the
// persisted id from prefs; an invalid or empty id is replaced by a fresh one.
func Detect(version, deviceID string, o Overrides) tracker.Device {
	return detect(runtime.GOOS, runtime.GOARCH, version, deviceID, o)
}

func detect(goos, goarch, version, deviceID string, o Overrides) tracker.Device {
	ua := strings.TrimSpace(o.UserAgent)
	if ua == "" {
		ua = UserAgent(goos, goarch, version, deviceID)
	}
	mobile := IsMobile(ua) || goos == "android" || goos == "ios"
	if o.Mobile != nil {
		mobile = *o.Mobile
	}
	return tracker.Device{UserAgent: ua, IsMobile: mobile}
}

// UserAgent formats the default user agent string.
func UserAgent(goos, goarch, version, deviceID string) string {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	id, err := uuid.Parse(deviceID)
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("pinpoint/%s (%s; %s) device/%s", version, goos, goarch, id)
}

// IsMobile applies the browser-style mobile test to a user agent.
func IsMobile(userAgent string) bool {
	return mobilePattern.MatchString(userAgent)
}
