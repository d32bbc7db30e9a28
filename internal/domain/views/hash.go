package views

import (
	"net/url"
	"strings"
)

// Navigation is a parsed URL hash of the form "#tab&key=value&...".
type Navigation struct {
	Anchor string
	// Params is nil when the hash carries no well-formed parameter.
	Params map[string]string
}

// ParseHash splits a URL hash into its anchor and decoded parameters.
// Pairs without exactly one '=' or with bad escapes are skipped.
func ParseHash(hash string) Navigation {
	if hash != "" && !strings.HasPrefix(hash, "#") {
		hash = "#" + hash
	}
	parts := strings.Split(hash, "&")

	nav := Navigation{Anchor: parts[0]}
	for _, part := range parts[1:] {
		kv := strings.Split(part, "=")
		if len(kv) != 2 {
			continue
		}
		key, err := url.PathUnescape(kv[0])
		if err != nil {
			continue
		}
		value, err := url.PathUnescape(kv[1])
		if err != nil {
			continue
		}
		if nav.Params == nil {
			nav.Params = make(map[string]string)
		}
		nav.Params[key] = value
	}
	return nav
}
