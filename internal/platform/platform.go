package platform

import (
	"net/url"
	"strings"
)

// supportedPlatforms is the fixed allowlist of platform domains the gateway
// will hand to yt-dlp. Immutable after startup; matched as host substrings.
var supportedPlatforms = []string{
	"youtube.com", "youtu.be",
	"facebook.com", "fb.watch",
	"instagram.com",
	"tiktok.com", "vm.tiktok.com",
	"twitter.com", "x.com",
	"vimeo.com",
	"dailymotion.com",
	"linkedin.com",
	"reddit.com",
	"pinterest.com",
	"whatsapp.com",
	"snapchat.com",
	"twitch.tv",
	"bilibili.com",
	"rutube.ru",
	"ok.ru",
	"vk.com",
}

// ValidateURL reports whether s is an absolute http(s) URL.
func ValidateURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsSupported reports whether the URL's host matches a supported platform.
// A URL that fails to parse is unsupported, never an error.
func IsSupported(s string) bool {
	_, ok := Match(s)
	return ok
}

// Match returns the allowlist entry the URL's host matched, for per-platform
// accounting. The host is lowercased and matched by substring, so subdomains
// like m.youtube.com match youtube.com.
func Match(s string) (string, bool) {
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	for _, p := range supportedPlatforms {
		if strings.Contains(host, p) {
			return p, true
		}
	}
	return "", false
}

// Supported returns a copy of the allowlist for the /api/platforms route.
func Supported() []string {
	out := make([]string, len(supportedPlatforms))
	copy(out, supportedPlatforms)
	return out
}
