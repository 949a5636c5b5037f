package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo is the coarse device description stored with a client id
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop, unknown
	OS         string `json:"os"`          // "Windows 10", "iPhone OS 16_0"
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Platform   string `json:"platform"` // android, ios, windows, mac, linux, chromeos
}

var unknownDevice = DeviceInfo{
	DeviceType: "unknown",
	OS:         "Unknown",
	Browser:    "Unknown",
	Platform:   "unknown",
}

// Substrings of the lowercased UA that mark a tablet
var tabletMarkers = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "xoom", "sm-t"}

// Checked in order; the first OS-name match wins
var platformMarkers = []struct{ marker, platform string }{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"chrome os", "chromeos"},
	{"windows", "windows"},
	{"mac os x", "mac"},
	{"macos", "mac"},
	{"ubuntu", "linux"},
	{"linux", "linux"},
}

// ParseUserAgent describes the device behind a User-Agent header
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return unknownDevice
	}

	parsed := ua.New(userAgent)
	osInfo := parsed.OSInfo()
	browser, _ := parsed.Browser()

	info := DeviceInfo{
		DeviceType: "desktop",
		OS:         strings.TrimSpace(osInfo.Name + " " + osInfo.Version),
		Browser:    browser,
		IsBot:      parsed.Bot(),
		Platform:   platformOf(osInfo.Name),
	}

	switch {
	case containsAny(strings.ToLower(userAgent), tabletMarkers):
		info.DeviceType = "tablet"
	case parsed.Mobile():
		info.DeviceType = "mobile"
	}
	if osInfo.Name == "" {
		info.OS = unknownDevice.OS
	}
	if info.Browser == "" {
		info.Browser = unknownDevice.Browser
	}
	return info
}

func platformOf(osName string) string {
	name := strings.ToLower(osName)
	for _, p := range platformMarkers {
		if strings.Contains(name, p.marker) {
			return p.platform
		}
	}
	return unknownDevice.Platform
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
