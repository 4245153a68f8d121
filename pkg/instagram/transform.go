package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

// wrapperPrefix marks a redirect-style URL whose real target is carried in
// its "uri" query parameter.
const wrapperPrefix = "/api/instagram/get"

// Each canonical field is resolved by an ordered rule chain: the first rule
// producing a usable value wins. The chains are plain data so tests can
// exercise them rule by rule.

type stringRule struct {
	name string
	get  func(*RawProfile) string
}

type countRule struct {
	name string
	get  func(*RawProfile) int
}

var profilePictureChain = []stringRule{
	{"profile_pic_url_hd_wrapped", func(p *RawProfile) string { return UnwrapURL(p.ProfilePicURLHDWrapped) }},
	{"profile_pic_url_wrapped", func(p *RawProfile) string { return UnwrapURL(p.ProfilePicURLWrapped) }},
	{"profile_pic_url_hd", func(p *RawProfile) string { return p.ProfilePicURLHD }},
	{"profile_pic_url", func(p *RawProfile) string { return p.ProfilePicURL }},
	{"profile_picture", func(p *RawProfile) string { return p.ProfilePicture }},
	{"hd_profile_pic_url_info", func(p *RawProfile) string {
		if p.HDProfilePicURLInfo != nil {
			return p.HDProfilePicURLInfo.URL
		}
		return ""
	}},
}

var fullNameChain = []stringRule{
	{"full_name", func(p *RawProfile) string { return p.FullName }},
	{"name", func(p *RawProfile) string { return p.Name }},
	{"username", func(p *RawProfile) string { return p.Username }},
}

var bioChain = []stringRule{
	{"biography", func(p *RawProfile) string { return p.Biography }},
	{"bio", func(p *RawProfile) string { return p.Bio }},
}

var websiteChain = []stringRule{
	{"external_url", func(p *RawProfile) string { return p.ExternalURL }},
	{"website", func(p *RawProfile) string { return p.Website }},
}

var locationChain = []stringRule{
	{"business_address", func(p *RawProfile) string { return p.BusinessAddress }},
	{"location", func(p *RawProfile) string { return p.Location }},
}

var followersChain = []countRule{
	{"edge_followed_by.count", func(p *RawProfile) int {
		if p.EdgeFollowedBy != nil {
			return p.EdgeFollowedBy.Count
		}
		return 0
	}},
	{"follower_count", func(p *RawProfile) int { return p.FollowerCount }},
	{"followers", func(p *RawProfile) int { return p.Followers }},
}

var followingChain = []countRule{
	{"edge_follow.count", func(p *RawProfile) int {
		if p.EdgeFollow != nil {
			return p.EdgeFollow.Count
		}
		return 0
	}},
	{"following_count", func(p *RawProfile) int { return p.FollowingCount }},
	{"following", func(p *RawProfile) int { return p.Following }},
}

var postsCountChain = []countRule{
	{"edge_owner_to_timeline_media.count", func(p *RawProfile) int {
		if p.EdgeOwnerToTimelineMedia != nil {
			return p.EdgeOwnerToTimelineMedia.Count
		}
		return 0
	}},
	{"media_count", func(p *RawProfile) int { return p.MediaCount }},
	{"posts", func(p *RawProfile) int { return p.Posts }},
}

func firstString(p *RawProfile, chain []stringRule) string {
	for _, rule := range chain {
		if v := rule.get(p); v != "" {
			return v
		}
	}
	return ""
}

func firstCount(p *RawProfile, chain []countRule) int {
	for _, rule := range chain {
		if v := rule.get(p); v > 0 {
			return v
		}
	}
	return 0
}

// UnwrapURL resolves a redirect-wrapped URL to its real target: if the URL
// path starts with the wrapper prefix, the decoded "uri" query parameter is
// the target. Any other URL passes through unchanged.
func UnwrapURL(raw string) string {
	if !strings.HasPrefix(raw, wrapperPrefix) {
		return raw
	}

	i := strings.Index(raw, "?")
	if i < 0 {
		return raw
	}
	values, err := url.ParseQuery(raw[i+1:])
	if err != nil {
		return raw
	}
	if target := values.Get("uri"); target != "" {
		return target
	}
	return raw
}

// Transform coerces a scraping-API payload into the canonical Profile. It is
// total: any well-formed payload produces a profile, with missing fields
// degrading to empty strings, zero counts, and the personal account type.
func Transform(raw *RawEnvelope) *Profile {
	return TransformWithPosts(raw, nil)
}

// TransformWithPosts is Transform with an optional standalone posts payload,
// preferred over the edges embedded in the profile when present.
func TransformWithPosts(raw *RawEnvelope, postList *RawPostList) *Profile {
	p := raw.Unwrap()
	if p == nil {
		p = &RawProfile{}
	}

	posts := transformPosts(collectRawPosts(p, postList))
	if p.IsPrivate {
		posts = []Post{}
	}

	postsCount := firstCount(p, postsCountChain)
	if postsCount == 0 {
		postsCount = len(posts)
	}

	return &Profile{
		Username:          displayUsername(p),
		FullName:          firstString(p, fullNameChain),
		Bio:               firstString(p, bioChain),
		ProfilePictureURL: firstString(p, profilePictureChain),
		Followers:         FormatCount(firstCount(p, followersChain)),
		Following:         FormatCount(firstCount(p, followingChain)),
		PostsCount:        FormatCount(postsCount),
		IsVerified:        p.IsVerified,
		IsPrivate:         p.IsPrivate,
		Website:           firstString(p, websiteChain),
		Location:          firstString(p, locationChain),
		AccountType:       accountType(p),
		RecentPosts:       posts,
	}
}

// displayUsername renders the handle in display form with a leading "@",
// falling back to the numeric identifier when no handle is present.
func displayUsername(p *RawProfile) string {
	handle := p.Username
	if handle == "" {
		handle = string(p.PK)
	}
	return "@" + handle
}

func accountType(p *RawProfile) AccountType {
	switch {
	case p.IsBusinessAccount || p.AccountType == string(AccountBusiness):
		return AccountBusiness
	case p.IsProfessionalAccount || p.AccountType == string(AccountCreator):
		return AccountCreator
	default:
		return AccountPersonal
	}
}

// collectRawPosts gathers post nodes from whichever collection is present:
// the standalone flat lists win over the edges embedded in the profile.
func collectRawPosts(p *RawProfile, postList *RawPostList) []RawPost {
	if postList != nil {
		if len(postList.Data) > 0 {
			return postList.Data
		}
		if len(postList.Posts) > 0 {
			return postList.Posts
		}
	}
	if p.EdgeOwnerToTimelineMedia == nil {
		return nil
	}
	posts := make([]RawPost, 0, len(p.EdgeOwnerToTimelineMedia.Edges))
	for _, edge := range p.EdgeOwnerToTimelineMedia.Edges {
		if edge.Node == nil {
			// Malformed edge with no node; dropped rather than kept as an
			// empty placeholder tile.
			continue
		}
		posts = append(posts, *edge.Node)
	}
	return posts
}

func transformPosts(raw []RawPost) []Post {
	if len(raw) > MaxRecentPosts {
		raw = raw[:MaxRecentPosts]
	}

	posts := make([]Post, 0, len(raw))
	for i, rp := range raw {
		node := rp
		if rp.Node != nil {
			node = *rp.Node
		}

		id := string(node.ID)
		if id == "" {
			id = string(node.PK)
		}
		if id == "" {
			id = fmt.Sprintf("post_%d", i)
		}

		link := node.Shortcode
		if link == "" {
			link = id
		}

		posts = append(posts, Post{
			ID:            id,
			ImageURL:      postImageURL(&node, i),
			Link:          PostLink(link),
			Caption:       postCaption(&node),
			LikesCount:    FormatCount(firstPositive(node.LikeCount, node.Likes)),
			CommentsCount: FormatCount(firstPositive(node.CommentCount, node.Comments)),
		})
	}
	return posts
}

// fillerImages backs posts that arrive without any usable media URL, so a
// grid cell never renders broken.
var fillerImages = []string{
	"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=300&h=300&fit=crop",
	"https://images.unsplash.com/photo-1493770348161-369560ae357d?w=300&h=300&fit=crop",
	"https://images.unsplash.com/photo-1511367461989-f85a21fda167?w=300&h=300&fit=crop",
	"https://images.unsplash.com/photo-1469334031218-e382a71b716b?w=300&h=300&fit=crop",
}

func postImageURL(node *RawPost, index int) string {
	if node.DisplayURL != "" {
		return node.DisplayURL
	}
	if node.ImageVersions2 != nil && len(node.ImageVersions2.Candidates) > 0 {
		if u := node.ImageVersions2.Candidates[0].URL; u != "" {
			return u
		}
	}
	if node.ThumbnailURL != "" {
		return node.ThumbnailURL
	}
	if node.MediaURL != "" {
		return node.MediaURL
	}
	return fillerImages[index%len(fillerImages)]
}

func postCaption(node *RawPost) string {
	if node.Caption.Text != "" {
		return node.Caption.Text
	}
	if node.EdgeMediaToCaption != nil && len(node.EdgeMediaToCaption.Edges) > 0 {
		return node.EdgeMediaToCaption.Edges[0].Node.Text
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
