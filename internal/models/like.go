package models

import "time"

// Like represents a user's like on exactly one of a story or a comment.
// The (UserID, StoryID) and (UserID, CommentID) combinations must be unique;
// that uniqueness is the remote store's safety net against double-insert from
// concurrent sessions (the repositories' check-then-act toggle is a UX
// optimization, not a correctness mechanism).
type Like struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_like_user_story;uniqueIndex:idx_like_user_comment" json:"user_id"`
	StoryID   *string   `gorm:"size:36;uniqueIndex:idx_like_user_story;check:chk_like_target,(story_id IS NULL) <> (comment_id IS NULL)" json:"story_id,omitempty"`
	CommentID *string   `gorm:"size:36;uniqueIndex:idx_like_user_comment" json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "likes" }
