package imageproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsProxy(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"empty", "", false},
		{"instagram profile pic", "https://instagram.com/some/pic.jpg", true},
		{"cdninstagram", "https://scontent.cdninstagram.com/v/t51/pic.jpg", true},
		{"regional cdn", "https://scontent-lax3-1.xx.fbcdn.net/pic.jpg", true},
		{"fbcdn", "https://static.fbcdn.net/pic.jpg", true},
		{"unsplash", "https://images.unsplash.com/photo-123", false},
		{"arbitrary site", "https://example.com/pic.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsProxy(tt.url))
		})
	}
}

func TestProxiedStripsQueryAndEncodes(t *testing.T) {
	got := Proxied("https://scontent.cdninstagram.com/pic.jpg?ig_cache_key=abc", Options{})
	assert.Equal(t, "https://api.allorigins.win/raw?url=https%3A%2F%2Fscontent.cdninstagram.com%2Fpic.jpg", got)
}

func TestProxiedPassesThroughDataURLs(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,xyz", Proxied("data:image/png;base64,xyz", Options{}))
	assert.Equal(t, "blob:abc", Proxied("blob:abc", Options{}))
	assert.Equal(t, "", Proxied("", Options{}))
}

func TestSmartLeavesSafeHostsAlone(t *testing.T) {
	url := "https://images.unsplash.com/photo-123"
	assert.Equal(t, url, Smart(url, PostOptions))

	proxied := Smart("https://scontent.cdninstagram.com/pic.jpg", PostOptions)
	assert.Contains(t, proxied, "allorigins.win")
}

func TestCandidatesOrder(t *testing.T) {
	original := "https://scontent.cdninstagram.com/pic.jpg?cache=1"
	got := Candidates(original, Options{Width: 400, Height: 400, Quality: 80})

	require.Len(t, got, 3)
	assert.Contains(t, got[0], "api.allorigins.win/raw?url=")
	assert.Contains(t, got[1], "images.weserv.nl/?")
	assert.Contains(t, got[1], "w=400")
	assert.Contains(t, got[1], "h=400")
	assert.Contains(t, got[1], "q=80")
	assert.Equal(t, original, got[2], "original URL is the last resort")
}

func TestCandidatesForSafeURL(t *testing.T) {
	url := "https://images.unsplash.com/photo-123"
	assert.Equal(t, []string{url}, Candidates(url, Options{}))
}

func TestWeservFormat(t *testing.T) {
	got := weservURL("https://instagram.com/pic.jpg", AvatarOptions)
	assert.Contains(t, got, "output=webp")

	got = weservURL("https://instagram.com/pic.jpg", Options{Format: "auto"})
	assert.NotContains(t, got, "output=")
}
