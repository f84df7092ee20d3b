package models

import "time"

// Comment represents a single comment row on a story. A nil ParentID marks a
// root comment; a non-nil ParentID is expected (but not re-validated here) to
// reference a comment on the same story.
type Comment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	StoryID    string    `gorm:"size:36;not null;index" json:"story_id"`
	UserID     string    `gorm:"size:36;not null;index" json:"user_id"`
	Content    string    `gorm:"not null" json:"content"`
	ParentID   *string   `gorm:"size:36" json:"parent_id,omitempty"`
	LikesCount int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Author is the joined profile row for display; populated by the
	// repository, never persisted.
	Author *Profile `gorm:"-" json:"profiles,omitempty"`
	// UserLiked indicates whether the current identity liked this comment (computed).
	UserLiked bool `gorm:"-" json:"user_liked"`
}

func (Comment) TableName() string { return "comments" }
