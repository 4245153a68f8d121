// Package instagram defines the canonical profile model, the username
// normalizer, and the transformer that coerces upstream payloads into the
// canonical shape.
package instagram

import (
	"fmt"
	"strconv"
)

// AccountType classifies a profile
type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
	AccountCreator  AccountType = "creator"
)

// MaxRecentPosts caps how many posts a profile carries.
const MaxRecentPosts = 12

// Profile is the canonical, display-ready profile shape. Every provider
// ultimately produces this; counts are pre-formatted strings ("12.3K").
type Profile struct {
	Username          string      `json:"username"`
	FullName          string      `json:"full_name"`
	Bio               string      `json:"bio"`
	ProfilePictureURL string      `json:"profile_picture_url"`
	Followers         string      `json:"followers"`
	Following         string      `json:"following"`
	PostsCount        string      `json:"posts_count"`
	IsVerified        bool        `json:"is_verified"`
	IsPrivate         bool        `json:"is_private"`
	Website           string      `json:"website,omitempty"`
	Location          string      `json:"location,omitempty"`
	AccountType       AccountType `json:"account_type,omitempty"`
	RecentPosts       []Post      `json:"recent_posts"`
}

// Post is a single entry in a profile's recent posts.
type Post struct {
	ID            string `json:"id"`
	ImageURL      string `json:"image_url"`
	Link          string `json:"link"`
	Caption       string `json:"caption,omitempty"`
	LikesCount    string `json:"likes_count,omitempty"`
	CommentsCount string `json:"comments_count,omitempty"`
}

// FormatCount renders a count in abbreviated display form: 1234000 becomes
// "1.2M", 4500 becomes "4.5K", 42 stays "42".
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

// PostLink builds the public permalink for a post shortcode or media ID.
func PostLink(shortcodeOrID string) string {
	return "https://instagram.com/p/" + shortcodeOrID
}
