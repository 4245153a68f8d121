package instagram

import "encoding/json"

// The scraping API answers with one of several shapes: the profile object may
// sit at the top level or be nested under "result", "data", or "user", and
// most fields have at least one alias. The Raw* types cover every alias the
// transformer's precedence chains consult.

// RawEnvelope is the outermost scraping-API response shape.
type RawEnvelope struct {
	Result *RawProfile `json:"result"`
	Data   *RawProfile `json:"data"`
	User   *RawProfile `json:"user"`

	RawProfile
}

// Unwrap resolves the envelope to the innermost profile object present.
func (e *RawEnvelope) Unwrap() *RawProfile {
	switch {
	case e == nil:
		return nil
	case e.Result != nil:
		return e.Result
	case e.Data != nil:
		return e.Data
	case e.User != nil:
		return e.User
	default:
		return &e.RawProfile
	}
}

// RawProfile is a backend profile object with every known field alias.
type RawProfile struct {
	ID       FlexibleID `json:"id"`
	PK       FlexibleID `json:"pk"`
	Username string     `json:"username"`

	FullName  string `json:"full_name"`
	Name      string `json:"name"`
	Biography string `json:"biography"`
	Bio       string `json:"bio"`

	ProfilePicURL          string `json:"profile_pic_url"`
	ProfilePicURLHD        string `json:"profile_pic_url_hd"`
	ProfilePicURLWrapped   string `json:"profile_pic_url_wrapped"`
	ProfilePicURLHDWrapped string `json:"profile_pic_url_hd_wrapped"`
	ProfilePicture         string `json:"profile_picture"`
	HDProfilePicURLInfo    *struct {
		URL string `json:"url"`
	} `json:"hd_profile_pic_url_info"`

	FollowerCount  int `json:"follower_count"`
	Followers      int `json:"followers"`
	FollowingCount int `json:"following_count"`
	Following      int `json:"following"`
	MediaCount     int `json:"media_count"`
	Posts          int `json:"posts"`

	IsVerified bool `json:"is_verified"`
	IsPrivate  bool `json:"is_private"`

	ExternalURL     string `json:"external_url"`
	Website         string `json:"website"`
	BusinessAddress string `json:"business_address"`
	Location        string `json:"location"`

	IsBusinessAccount     bool   `json:"is_business_account"`
	IsProfessionalAccount bool   `json:"is_professional_account"`
	AccountType           string `json:"account_type"`

	EdgeFollowedBy           *RawEdgeCount `json:"edge_followed_by"`
	EdgeFollow               *RawEdgeCount `json:"edge_follow"`
	EdgeOwnerToTimelineMedia *RawTimeline  `json:"edge_owner_to_timeline_media"`
}

// RawEdgeCount is a nested count object ("edge_followed_by": {"count": N}).
type RawEdgeCount struct {
	Count int `json:"count"`
}

// RawTimeline is the nested timeline-media object carrying both the post
// count and the post edges.
type RawTimeline struct {
	Count int           `json:"count"`
	Edges []RawPostEdge `json:"edges"`
}

// RawPostEdge wraps a post node in an edge envelope.
type RawPostEdge struct {
	Node *RawPost `json:"node"`
}

// RawPostList is the shape of a standalone posts payload: a flat list under
// either "data" or "posts".
type RawPostList struct {
	Data  []RawPost `json:"data"`
	Posts []RawPost `json:"posts"`
}

// RawPost is a backend post object with every known field alias. A post may
// itself wrap its real content in a "node".
type RawPost struct {
	ID        FlexibleID `json:"id"`
	PK        FlexibleID `json:"pk"`
	Shortcode string     `json:"shortcode"`

	DisplayURL     string `json:"display_url"`
	ImageVersions2 *struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
	ThumbnailURL string `json:"thumbnail_url"`
	MediaURL     string `json:"media_url"`

	Caption            RawCaption `json:"caption"`
	EdgeMediaToCaption *struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`

	LikeCount    int `json:"like_count"`
	Likes        int `json:"likes"`
	CommentCount int `json:"comment_count"`
	Comments     int `json:"comments"`

	Node *RawPost `json:"node"`
}

// FlexibleID decodes a JSON string or number into a string. Some backends
// send numeric identifiers ("pk": 192008031), others quote them.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// RawCaption decodes a caption that is either a bare string or an object
// with a "text" field.
type RawCaption struct {
	Text string
}

func (c *RawCaption) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &c.Text)
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	c.Text = obj.Text
	return nil
}
