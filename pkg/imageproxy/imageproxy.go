// Package imageproxy constructs proxy URLs for Instagram CDN images, which
// reject hotlinked requests. It only builds candidate URLs; callers do the
// fetching and work down the list on failure.
package imageproxy

import (
	"fmt"
	"net/url"
	"strings"
)

// Options tune the resizing proxy. Zero values are omitted from the query.
type Options struct {
	Width   int
	Height  int
	Quality int
	Format  string // "webp", "png", "jpg"; empty means the proxy decides
}

// Presets matching the original surface: small square avatars and grid-sized
// post thumbnails.
var (
	AvatarOptions = Options{Width: 300, Height: 300, Quality: 85, Format: "webp"}
	PostOptions   = Options{Width: 400, Height: 400, Quality: 80, Format: "webp"}
)

// proxiedDomains are URL substrings that mark an image as hotlink-protected.
var proxiedDomains = []string{
	"instagram.com",
	"cdninstagram.com",
	"scontent.cdninstagram.com",
	"scontent-",
	"fbcdn.net",
}

// NeedsProxy reports whether rawURL points at a CDN that blocks hotlinking.
func NeedsProxy(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	for _, domain := range proxiedDomains {
		if strings.Contains(rawURL, domain) {
			return true
		}
	}
	return false
}

// Proxied returns the primary proxy URL for rawURL. Data and blob URLs pass
// through untouched.
func Proxied(rawURL string, opts Options) string {
	if rawURL == "" || strings.HasPrefix(rawURL, "data:") || strings.HasPrefix(rawURL, "blob:") {
		return rawURL
	}
	return allOriginsURL(stripQuery(rawURL))
}

// ProxiedAvatar is Proxied with the avatar preset.
func ProxiedAvatar(rawURL string) string {
	return Proxied(rawURL, AvatarOptions)
}

// ProxiedPost is Proxied with the post thumbnail preset.
func ProxiedPost(rawURL string) string {
	return Proxied(rawURL, PostOptions)
}

// Smart proxies rawURL only when its host requires it.
func Smart(rawURL string, opts Options) string {
	if !NeedsProxy(rawURL) {
		return rawURL
	}
	return Proxied(rawURL, opts)
}

// Candidates returns the ordered fallback list for rawURL: the CORS proxy
// first, then the resizing proxy, then the original URL as a last resort.
// URLs that need no proxying get a single-element list.
func Candidates(rawURL string, opts Options) []string {
	if rawURL == "" || !NeedsProxy(rawURL) {
		return []string{rawURL}
	}

	clean := stripQuery(rawURL)
	return []string{
		allOriginsURL(clean),
		weservURL(clean, opts),
		rawURL,
	}
}

func stripQuery(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func allOriginsURL(clean string) string {
	return "https://api.allorigins.win/raw?url=" + url.QueryEscape(clean)
}

func weservURL(clean string, opts Options) string {
	params := url.Values{}
	params.Set("url", clean)
	if opts.Width > 0 {
		params.Set("w", fmt.Sprintf("%d", opts.Width))
	}
	if opts.Height > 0 {
		params.Set("h", fmt.Sprintf("%d", opts.Height))
	}
	if opts.Quality > 0 {
		params.Set("q", fmt.Sprintf("%d", opts.Quality))
	}
	if opts.Format != "" && opts.Format != "auto" {
		params.Set("output", opts.Format)
	}
	return "https://images.weserv.nl/?" + params.Encode()
}
