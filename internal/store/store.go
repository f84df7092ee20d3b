// Package store defines the remote store boundary the community repositories
// depend on, plus the gorm-backed and in-memory implementations of it.
//
// The contract is deliberately narrow: row-level select/insert/update/delete
// with equality filters. Anything resembling a join is composed by the
// repositories from multiple selects, so any relational backend (or the
// in-memory stub) can be substituted.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"frameconomics/internal/models"
)

// Table names served by every RemoteStore implementation.
const (
	TableProfiles = "profiles"
	TableStories  = "stories"
	TableComments = "comments"
	TableLikes    = "likes"
)

// ErrUnknownTable is returned when an operation names a table outside the
// four the store serves.
var ErrUnknownTable = errors.New("store: unknown table")

// ErrDuplicateLike is returned when inserting a like that would violate the
// one-like-per-(user, target) uniqueness constraint.
var ErrDuplicateLike = errors.New("store: duplicate like")

// ErrRowNotFound is returned by Update when no row has the given id.
var ErrRowNotFound = errors.New("store: row not found")

// Filter expresses row-level equality filters keyed by column name. A nil
// value matches NULL; a slice value matches any of its elements (IN).
type Filter map[string]any

// RemoteStore is the boundary contract with the hosted relational store.
//
// External preconditions this core relies on but does not enforce:
//   - likes_count/comments_count columns are kept equal to the referencing
//     row counts by the store (triggers in the gorm implementation,
//     recomputation on select in the memory one);
//   - deleting a story cascades to its comments and likes;
//   - (user_id, story_id) and (user_id, comment_id) are unique on likes.
type RemoteStore interface {
	// Select loads rows matching filters into dest (a pointer to a slice of
	// the table's row type), ordered by the optional orderBy clause.
	Select(ctx context.Context, table string, filters Filter, orderBy string, dest any) error
	// Insert stores row (a pointer to a row struct), stamping id and
	// timestamps on it.
	Insert(ctx context.Context, table string, row any) error
	// Update applies patch to the row with the given id.
	Update(ctx context.Context, table string, id string, patch map[string]any) error
	// Delete removes rows matching filters and reports how many were removed.
	Delete(ctx context.Context, table string, filters Filter) (int64, error)
	// Count reports the number of rows matching filters.
	Count(ctx context.Context, table string, filters Filter) (int64, error)
}

// Ordering clauses understood by every implementation.
const (
	OrderCreatedAsc  = "created_at ASC"
	OrderCreatedDesc = "created_at DESC"
)

// stampRow fills in id and timestamps on a new row if they are unset.
func stampRow(row any) error {
	now := time.Now().UTC()
	switch r := row.(type) {
	case *models.Profile:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *models.Story:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *models.Comment:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *models.Like:
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	default:
		return ErrUnknownTable
	}
	return nil
}
