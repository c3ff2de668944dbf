// Package model contains domain models passed between layers.
package model

import "time"

// Reference kinds carried on interaction edges. RefKindGeneric is the
// fallback when an upstream record omits the reference type.
const (
	RefKindRetweet = "retweet"
	RefKindReply   = "reply"
	RefKindQuote   = "quote"
	RefKindMention = "mention"
	RefKindGeneric = "ref"
)

// RawRecord mirrors one post as delivered by the collection stage.
// Every field except ID is optional; accessors below resolve the
// documented default for each nested field.
type RawRecord struct {
	ID               string        `json:"id"`
	Text             string        `json:"text"`
	CreatedAt        string        `json:"created_at"`
	AuthorID         string        `json:"author_id"`
	Lang             string        `json:"lang"`
	PublicMetrics    *RawMetrics   `json:"public_metrics,omitempty"`
	Entities         *RawEntities  `json:"entities,omitempty"`
	ReferencedTweets []RawReferent `json:"referenced_tweets,omitempty"`
	// User is attached out of band by the collection stage when author
	// metadata was resolved.
	User *RawUser `json:"_user,omitempty"`
}

// RawMetrics holds per-post engagement counters.
type RawMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// RawEntities holds mention and hashtag annotations.
type RawEntities struct {
	Mentions []RawMention `json:"mentions,omitempty"`
	Hashtags []RawHashtag `json:"hashtags,omitempty"`
}

// RawMention is a single @mention annotation.
type RawMention struct {
	Username string `json:"username"`
}

// RawHashtag is a single #tag annotation.
type RawHashtag struct {
	Tag string `json:"tag"`
}

// RawReferent points at another post (retweet/reply/quote target).
type RawReferent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// RawUser carries resolved author metadata.
type RawUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Metrics returns the engagement counters, zero-valued when absent.
func (r RawRecord) Metrics() Metrics {
	if r.PublicMetrics == nil {
		return Metrics{}
	}
	return Metrics{
		RetweetCount: r.PublicMetrics.RetweetCount,
		ReplyCount:   r.PublicMetrics.ReplyCount,
		LikeCount:    r.PublicMetrics.LikeCount,
		QuoteCount:   r.PublicMetrics.QuoteCount,
	}
}

// MentionUsernames returns the mentioned usernames in order, empty when absent.
func (r RawRecord) MentionUsernames() []string {
	if r.Entities == nil || len(r.Entities.Mentions) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Entities.Mentions))
	for _, m := range r.Entities.Mentions {
		out = append(out, m.Username)
	}
	return out
}

// HashtagTags returns the hashtag tags in order, empty when absent.
func (r RawRecord) HashtagTags() []string {
	if r.Entities == nil || len(r.Entities.Hashtags) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Entities.Hashtags))
	for _, h := range r.Entities.Hashtags {
		out = append(out, h.Tag)
	}
	return out
}

// References returns the referenced posts, defaulting an absent type to
// RefKindGeneric.
func (r RawRecord) References() []Reference {
	if len(r.ReferencedTweets) == 0 {
		return nil
	}
	out := make([]Reference, 0, len(r.ReferencedTweets))
	for _, ref := range r.ReferencedTweets {
		kind := ref.Type
		if kind == "" {
			kind = RefKindGeneric
		}
		out = append(out, Reference{ID: ref.ID, Kind: kind})
	}
	return out
}

// Username returns the resolved author username or "" when unknown.
func (r RawRecord) Username() string {
	if r.User == nil {
		return ""
	}
	return r.User.Username
}

// Metrics holds per-post engagement counters with explicit zero defaults.
type Metrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// Reference points at another post together with the interaction kind.
type Reference struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Post is one flattened row of the enriched post table.
//
// A zero Bucket means the record's created_at failed to parse; such posts
// are excluded from temporal aggregation but kept everywhere else.
type Post struct {
	ID             string      `json:"id"`
	Text           string      `json:"text"`
	NormalizedText string      `json:"normalized_text"`
	CreatedAt      time.Time   `json:"created_at"`
	AuthorID       string      `json:"author_id"`
	Username       string      `json:"username"`
	Bucket         time.Time   `json:"bucket"`
	Metrics        Metrics     `json:"metrics"`
	Lang           string      `json:"lang"`
	Mentions       []string    `json:"mentions"`
	Hashtags       []string    `json:"hashtags"`
	References     []Reference `json:"references"`
}

// HasBucket reports whether the post carries a resolvable minute bucket.
func (p Post) HasBucket() bool {
	return !p.Bucket.IsZero()
}

// AuthorKey resolves the identity used for graph nodes: username when
// present, author id otherwise. Empty when the post has neither.
func (p Post) AuthorKey() string {
	if p.Username != "" {
		return p.Username
	}
	return p.AuthorID
}
