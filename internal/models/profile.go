// Package models contains data structures for the application's domain models.
package models

import "time"

// Profile represents a community member as known to the remote store. Rows
// are owned by the store's auth layer; this core only ever reads them.
type Profile struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Email          string    `gorm:"unique;not null" json:"email"`
	FullName       string    `gorm:"not null" json:"full_name"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Provider       string    `gorm:"size:16" json:"provider,omitempty"`
	Username       string    `gorm:"uniqueIndex" json:"username,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	RulesCompleted int       `gorm:"not null;default:0" json:"rules_completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName overrides the gorm default ("profiles" is also what the remote
// store calls this table, but stay explicit).
func (Profile) TableName() string { return "profiles" }
