package model

import "time"

// User represents an account that receives a personalized feed.
type User struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Preferences  []string  `json:"preferences"`
	Interests    []string  `json:"interests"`
	CreationTime time.Time `json:"creationTime"`
}

// Content is a publishable item owned by a creator.
type Content struct {
	ContentID    string     `json:"contentId"`
	CreatorID    string     `json:"creatorId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Body         string     `json:"body"`
	ContentType  string     `json:"contentType"`
	Categories   []string   `json:"categories"`
	Tags         []string   `json:"tags"`
	CreationTime time.Time  `json:"creationTime"`
	UpdateTime   *time.Time `json:"updateTime,omitempty"`
}

// InteractionKind tags the variant of an Interaction.
type InteractionKind string

const (
	KindShare   InteractionKind = "share"
	KindLike    InteractionKind = "like"
	KindComment InteractionKind = "comment"
	KindFollow  InteractionKind = "follow"
)

// Valid reports whether k is one of the known interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindShare, KindLike, KindComment, KindFollow:
		return true
	}
	return false
}

// Interaction is a user action against a target. TargetID is a content id for
// share, like and comment and a user id for follow. Text is set on comments only.
type Interaction struct {
	InteractionID string          `json:"interactionId"`
	Kind          InteractionKind `json:"kind"`
	UserID        string          `json:"userId"`
	TargetID      string          `json:"targetId"`
	Text          string          `json:"text,omitempty"`
	CreationTime  time.Time       `json:"creationTime"`
}

// ContentStats holds interaction counters for a single content item.
type ContentStats struct {
	ShareCount   int `json:"shareCount"`
	LikeCount    int `json:"likeCount"`
	CommentCount int `json:"commentCount"`
}

// UnknownCreator is shown as CreatorUsername when the creator cannot be resolved.
const UnknownCreator = "Unknown"

// ContentView is content as returned to API callers.
type ContentView struct {
	Content
	ContentStats
	CreatorUsername      string   `json:"creatorUsername"`
	PersonalizationScore *float64 `json:"personalizationScore,omitempty"`
}

// FollowInfluence ranks a followed user by their own activity.
type FollowInfluence struct {
	UserID         string  `json:"userId"`
	Username       string  `json:"username"`
	InfluenceScore float64 `json:"influenceScore"`
}

// InteractionInfluence is one of the user's recent significant interactions.
type InteractionInfluence struct {
	Kind           InteractionKind `json:"kind"`
	ContentID      string          `json:"contentId"`
	ContentTitle   string          `json:"contentTitle"`
	InfluenceScore float64         `json:"influenceScore"`
	CreationTime   time.Time       `json:"creationTime"`
}

// PersonalizationFactors is the per-user snapshot behind feed ranking.
type PersonalizationFactors struct {
	UserID           string                 `json:"userId"`
	ShareFactor      float64                `json:"shareFactor"`
	LikeFactor       float64                `json:"likeFactor"`
	CommentFactor    float64                `json:"commentFactor"`
	FollowFactor     float64                `json:"followFactor"`
	PreferenceFactor float64                `json:"preferenceFactor"`
	InterestFactor   float64                `json:"interestFactor"`
	Preferences      []string               `json:"preferences"`
	Interests        []string               `json:"interests"`
	TopFollows       []FollowInfluence      `json:"mostInfluentialFollows"`
	RecentActivity   []InteractionInfluence `json:"recentInteractions"`
}

// ListContentRequest pages through content in creation order.
type ListContentRequest struct {
	AfterID string
	Limit   int
}
