package instagram

import (
	"strings"

	"instaview/pkg/apierr"
)

const urlMarker = "instagram.com/"

// NormalizeUsername parses a free-text search query into a canonical handle.
// Accepted forms: a bare username, "@username", or a full profile URL. The
// result never carries a leading "@", path separators, or query-string
// characters; an empty result is an INVALID_USERNAME error.
func NormalizeUsername(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, urlMarker); i >= 0 {
		s = s[i+len(urlMarker):]
		if j := strings.IndexAny(s, "/?"); j >= 0 {
			s = s[:j]
		}
	}
	s = strings.TrimPrefix(s, "@")

	if s == "" {
		return "", apierr.New(apierr.CodeInvalidUsername, "")
	}
	return s, nil
}
