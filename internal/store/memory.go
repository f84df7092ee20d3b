package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"frameconomics/internal/models"
)

// MemoryStore is an in-memory RemoteStore for tests and development. It
// emulates the hosted store's side of the contract: counts are recomputed on
// select (standing in for the count triggers), story deletes cascade to
// comments and likes, and duplicate likes are rejected.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	stories  map[string]models.Story
	comments map[string]models.Comment
	likes    map[string]models.Like
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.Profile),
		stories:  make(map[string]models.Story),
		comments: make(map[string]models.Comment),
		likes:    make(map[string]models.Like),
	}
}

func (m *MemoryStore) Select(_ context.Context, table string, filters Filter, orderBy string, dest any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch out := dest.(type) {
	case *[]models.Profile:
		if table != TableProfiles {
			return ErrUnknownTable
		}
		var rows []models.Profile
		for _, p := range m.profiles {
			if matchFilter(profileCols(p), filters) {
				rows = append(rows, p)
			}
		}
		if err := orderRows(rows, orderBy,
			func(p models.Profile) time.Time { return p.CreatedAt },
			func(p models.Profile) string { return p.ID }); err != nil {
			return err
		}
		*out = rows
		return nil
	case *[]models.Story:
		if table != TableStories {
			return ErrUnknownTable
		}
		var rows []models.Story
		for _, s := range m.stories {
			if matchFilter(storyCols(s), filters) {
				s.LikesCount = m.countLocked(func(l models.Like) bool {
					return l.StoryID != nil && *l.StoryID == s.ID
				})
				s.CommentsCount = 0
				for _, c := range m.comments {
					if c.StoryID == s.ID {
						s.CommentsCount++
					}
				}
				rows = append(rows, s)
			}
		}
		if err := orderRows(rows, orderBy,
			func(s models.Story) time.Time { return s.CreatedAt },
			func(s models.Story) string { return s.ID }); err != nil {
			return err
		}
		*out = rows
		return nil
	case *[]models.Comment:
		if table != TableComments {
			return ErrUnknownTable
		}
		var rows []models.Comment
		for _, c := range m.comments {
			if matchFilter(commentCols(c), filters) {
				c.LikesCount = m.countLocked(func(l models.Like) bool {
					return l.CommentID != nil && *l.CommentID == c.ID
				})
				rows = append(rows, c)
			}
		}
		if err := orderRows(rows, orderBy,
			func(c models.Comment) time.Time { return c.CreatedAt },
			func(c models.Comment) string { return c.ID }); err != nil {
			return err
		}
		*out = rows
		return nil
	case *[]models.Like:
		if table != TableLikes {
			return ErrUnknownTable
		}
		var rows []models.Like
		for _, l := range m.likes {
			if matchFilter(likeCols(l), filters) {
				rows = append(rows, l)
			}
		}
		if err := orderRows(rows, orderBy,
			func(l models.Like) time.Time { return l.CreatedAt },
			func(l models.Like) string { return l.ID }); err != nil {
			return err
		}
		*out = rows
		return nil
	}
	return fmt.Errorf("store: unsupported select destination %T", dest)
}

func (m *MemoryStore) Insert(_ context.Context, table string, row any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := stampRow(row); err != nil {
		return err
	}
	switch r := row.(type) {
	case *models.Profile:
		if table != TableProfiles {
			return ErrUnknownTable
		}
		m.profiles[r.ID] = *r
	case *models.Story:
		if table != TableStories {
			return ErrUnknownTable
		}
		m.stories[r.ID] = *r
	case *models.Comment:
		if table != TableComments {
			return ErrUnknownTable
		}
		m.comments[r.ID] = *r
	case *models.Like:
		if table != TableLikes {
			return ErrUnknownTable
		}
		if (r.StoryID == nil) == (r.CommentID == nil) {
			return fmt.Errorf("store: like must target exactly one of story or comment")
		}
		for _, l := range m.likes {
			if l.UserID != r.UserID {
				continue
			}
			if r.StoryID != nil && l.StoryID != nil && *l.StoryID == *r.StoryID {
				return ErrDuplicateLike
			}
			if r.CommentID != nil && l.CommentID != nil && *l.CommentID == *r.CommentID {
				return ErrDuplicateLike
			}
		}
		m.likes[r.ID] = *r
	default:
		return ErrUnknownTable
	}
	return nil
}

func (m *MemoryStore) Update(_ context.Context, table string, id string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch table {
	case TableProfiles:
		p, ok := m.profiles[id]
		if !ok {
			return ErrRowNotFound
		}
		for k, v := range patch {
			switch k {
			case "full_name":
				p.FullName, _ = v.(string)
			case "bio":
				p.Bio, _ = v.(string)
			case "avatar_url":
				p.AvatarURL, _ = v.(string)
			case "rules_completed":
				p.RulesCompleted, _ = v.(int)
			}
		}
		p.UpdatedAt = time.Now().UTC()
		m.profiles[id] = p
		return nil
	case TableStories:
		s, ok := m.stories[id]
		if !ok {
			return ErrRowNotFound
		}
		for k, v := range patch {
			switch k {
			case "title":
				s.Title, _ = v.(string)
			case "content":
				s.Content, _ = v.(string)
			}
		}
		s.UpdatedAt = time.Now().UTC()
		m.stories[id] = s
		return nil
	case TableComments:
		c, ok := m.comments[id]
		if !ok {
			return ErrRowNotFound
		}
		if v, ok := patch["content"].(string); ok {
			c.Content = v
		}
		c.UpdatedAt = time.Now().UTC()
		m.comments[id] = c
		return nil
	}
	return ErrUnknownTable
}

func (m *MemoryStore) Delete(_ context.Context, table string, filters Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	switch table {
	case TableProfiles:
		for id, p := range m.profiles {
			if matchFilter(profileCols(p), filters) {
				delete(m.profiles, id)
				affected++
			}
		}
	case TableStories:
		for id, s := range m.stories {
			if !matchFilter(storyCols(s), filters) {
				continue
			}
			delete(m.stories, id)
			affected++
			m.cascadeStoryLocked(id)
		}
	case TableComments:
		for id, c := range m.comments {
			if !matchFilter(commentCols(c), filters) {
				continue
			}
			delete(m.comments, id)
			affected++
			// Likes on the comment go with it; replies are left dangling,
			// matching the hosted store's schema (parent_id has no cascade).
			m.dropLikesLocked(func(l models.Like) bool {
				return l.CommentID != nil && *l.CommentID == id
			})
		}
	case TableLikes:
		for id, l := range m.likes {
			if matchFilter(likeCols(l), filters) {
				delete(m.likes, id)
				affected++
			}
		}
	default:
		return 0, ErrUnknownTable
	}
	return affected, nil
}

func (m *MemoryStore) Count(_ context.Context, table string, filters Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	switch table {
	case TableProfiles:
		for _, p := range m.profiles {
			if matchFilter(profileCols(p), filters) {
				n++
			}
		}
	case TableStories:
		for _, s := range m.stories {
			if matchFilter(storyCols(s), filters) {
				n++
			}
		}
	case TableComments:
		for _, c := range m.comments {
			if matchFilter(commentCols(c), filters) {
				n++
			}
		}
	case TableLikes:
		for _, l := range m.likes {
			if matchFilter(likeCols(l), filters) {
				n++
			}
		}
	default:
		return 0, ErrUnknownTable
	}
	return n, nil
}

// cascadeStoryLocked removes a deleted story's comments and likes, the way
// the hosted store's foreign keys do.
func (m *MemoryStore) cascadeStoryLocked(storyID string) {
	for cid, c := range m.comments {
		if c.StoryID != storyID {
			continue
		}
		delete(m.comments, cid)
		m.dropLikesLocked(func(l models.Like) bool {
			return l.CommentID != nil && *l.CommentID == cid
		})
	}
	m.dropLikesLocked(func(l models.Like) bool {
		return l.StoryID != nil && *l.StoryID == storyID
	})
}

func (m *MemoryStore) dropLikesLocked(match func(models.Like) bool) {
	for id, l := range m.likes {
		if match(l) {
			delete(m.likes, id)
		}
	}
}

func (m *MemoryStore) countLocked(match func(models.Like) bool) int {
	n := 0
	for _, l := range m.likes {
		if match(l) {
			n++
		}
	}
	return n
}

// Column views used by the filter matcher.

func profileCols(p models.Profile) map[string]any {
	return map[string]any{
		"id":       p.ID,
		"email":    p.Email,
		"username": p.Username,
		"provider": p.Provider,
	}
}

func storyCols(s models.Story) map[string]any {
	return map[string]any{
		"id":       s.ID,
		"user_id":  s.UserID,
		"category": string(s.Category),
	}
}

func commentCols(c models.Comment) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"story_id":  c.StoryID,
		"user_id":   c.UserID,
		"parent_id": c.ParentID,
	}
}

func likeCols(l models.Like) map[string]any {
	return map[string]any{
		"id":         l.ID,
		"user_id":    l.UserID,
		"story_id":   l.StoryID,
		"comment_id": l.CommentID,
	}
}

func matchFilter(cols map[string]any, f Filter) bool {
	for k, want := range f {
		got, ok := cols[k]
		if !ok {
			return false
		}
		if !matchValue(got, want) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	if list, ok := want.([]string); ok {
		g, ok := normalizeValue(got).(string)
		if !ok {
			return false
		}
		return slices.Contains(list, g)
	}
	return normalizeValue(got) == normalizeValue(want)
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case models.Category:
		return string(x)
	default:
		return v
	}
}

// orderRows sorts rows by creation time with id as the tiebreaker, matching
// the ordering the relational store produces.
func orderRows[T any](rows []T, orderBy string, created func(T) time.Time, id func(T) string) error {
	switch orderBy {
	case "":
		return nil
	case OrderCreatedAsc, OrderCreatedDesc:
	default:
		return fmt.Errorf("store: unsupported order clause %q", orderBy)
	}
	desc := orderBy == OrderCreatedDesc
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := created(rows[i]), created(rows[j])
		if !ti.Equal(tj) {
			if desc {
				return ti.After(tj)
			}
			return ti.Before(tj)
		}
		if desc {
			return id(rows[i]) > id(rows[j])
		}
		return id(rows[i]) < id(rows[j])
	})
	return nil
}
