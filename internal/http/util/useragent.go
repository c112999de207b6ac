package util

import (
	"regexp"
	"strings"
)

// Device type buckets recorded on click events.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

var (
	mobilePattern = regexp.MustCompile(`(?i)mobile|android|iphone|ipad|ipod`)
	tabletPattern = regexp.MustCompile(`(?i)ipad|tablet`)
)

// ParseDeviceType buckets a User-Agent header into mobile/tablet/desktop.
func ParseDeviceType(userAgent string) string {
	if userAgent == "" {
		return DeviceUnknown
	}
	if mobilePattern.MatchString(userAgent) {
		if tabletPattern.MatchString(userAgent) {
			return DeviceTablet
		}
		return DeviceMobile
	}
	return DeviceDesktop
}

// ParseBrowser extracts a coarse browser family from a User-Agent header.
// Ordering matters: Chromium-based Edge advertises Chrome, and Chrome
// advertises Safari, so the more specific tokens are checked first.
func ParseBrowser(userAgent string) string {
	switch {
	case userAgent == "":
		return "Unknown"
	case strings.Contains(userAgent, "Edg"):
		return "Edge"
	case strings.Contains(userAgent, "Opera") || strings.Contains(userAgent, "OPR"):
		return "Opera"
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	default:
		return "Unknown"
	}
}
