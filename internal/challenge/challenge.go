// Package challenge detects anti-bot interstitial pages in raw response text.
package challenge

import "strings"

// Markers that identify a Cloudflare challenge page. Matching is
// case-insensitive and substring-based; a challenge page may embed any
// one of these.
var markers = []string{
	"just a moment",
	"cf-mitigated",
	"cf-browser-verification",
	"cf-chl",
}

// IsChallenge reports whether text looks like an anti-bot challenge page
// rather than real content.
func IsChallenge(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
