// Package tracking contains the pure helpers of the click pipeline: user agent
// parsing, fingerprints, click identifiers, query parameter extraction and
// redirect URL building.
package tracking

import (
	"regexp"

	"github.com/mssola/user_agent"
)

var tabletPattern = regexp.MustCompile(`(?i)ipad|tablet|kindle|silk|playbook`)

// DeviceInfo is the coarse device description stored with a click.
type DeviceInfo struct {
	Device  string // "desktop", "mobile" or "tablet"
	OS      string
	Browser string
}

// ParseUserAgent extracts device type, OS and browser names from a user agent.
// Unknown parts come back as "Unknown", the device defaults to "desktop".
func ParseUserAgent(userAgent string) DeviceInfo {
	ua := user_agent.New(userAgent)

	info := DeviceInfo{Device: "desktop", OS: "Unknown", Browser: "Unknown"}
	switch {
	case tabletPattern.MatchString(userAgent):
		info.Device = "tablet"
	case ua.Mobile():
		info.Device = "mobile"
	}
	if name := ua.OSInfo().Name; name != "" {
		info.OS = name
	}
	if name, _ := ua.Browser(); name != "" {
		info.Browser = name
	}
	return info
}
