package streambroadcast

import (
	"net/url"
	"strings"
)

// The whitelist is fixed and deliberately not configurable.
var allowedHosts = []string{"twitch.tv", "youtube.com", "facebook.com", "kick.com"}

// validStreamLink reports whether raw is an absolute URL whose host is one
// of the whitelisted streaming platforms or a subdomain of one. The match
// is dot-terminated: "m.youtube.com" passes, "evil-twitch.tv" and
// "youtube.com.evil.example" do not. Purely syntactic; no network I/O.
func validStreamLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, allowed := range allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
