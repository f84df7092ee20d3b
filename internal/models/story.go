package models

import "time"

// Category classifies a community story.
type Category string

const (
	CategorySuccessStory Category = "success_story"
	CategoryChallenge    Category = "challenge"
	CategoryInsight      Category = "insight"
	CategoryQuestion     Category = "question"
)

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySuccessStory, CategoryChallenge, CategoryInsight, CategoryQuestion:
		return true
	}
	return false
}

// NormalizeCategory maps a raw category string to its canonical form. The
// older store schema used "success" where the current one uses
// "success_story"; the legacy spelling is accepted as an alias.
func NormalizeCategory(raw string) (Category, bool) {
	if raw == "success" {
		return CategorySuccessStory, true
	}
	c := Category(raw)
	return c, c.Valid()
}

// Story represents a community story in the feed.
type Story struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;not null;index" json:"user_id"`
	Title         string    `gorm:"not null" json:"title"`
	Content       string    `gorm:"not null" json:"content"`
	RuleID        *int      `json:"rule_id,omitempty"`
	Category      Category  `gorm:"size:32;not null" json:"category"`
	Tags          []string  `gorm:"serializer:json" json:"tags"`
	LikesCount    int       `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int       `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Author is the joined profile row for display; populated by the
	// repository, never persisted.
	Author *Profile `gorm:"-" json:"profiles,omitempty"`
	// UserLiked indicates whether the current identity liked this story (computed).
	UserLiked bool `gorm:"-" json:"user_liked"`
}

func (Story) TableName() string { return "stories" }
