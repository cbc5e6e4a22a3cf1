// Package device derives a human-readable client name from the User-Agent a
// session was opened with. It is display metadata for session listings, not
// an authentication factor.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent extracts a display name in the form "Browser on OS".
func ParseUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
