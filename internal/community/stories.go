package community

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"frameconomics/internal/models"
	"frameconomics/internal/session"
	"frameconomics/internal/store"
)

// Input length constraints, enforced before any store call.
const (
	TitleMinLen   = 5
	ContentMinLen = 20
	CommentMaxLen = 1000
)

// CreateStoryInput carries the user-supplied fields of a new story.
type CreateStoryInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	RuleID   *int     `json:"rule_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// StoryFeed fetches the denormalized story feed and exposes the write
// operations on it. It keeps an in-memory snapshot of the last fetched feed;
// the snapshot slice is swapped wholesale, never mutated in place, so
// concurrent readers always see a consistent view.
type StoryFeed struct {
	store   store.RemoteStore
	session session.Provider

	mu   sync.RWMutex
	feed []models.Story
}

// NewStoryFeed creates a story feed repository over the given store and
// session provider.
func NewStoryFeed(st store.RemoteStore, sess session.Provider) *StoryFeed {
	return &StoryFeed{store: st, session: sess}
}

// Feed returns the last fetched feed snapshot.
func (f *StoryFeed) Feed() []models.Story {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.feed
}

// FetchFeed retrieves all stories, newest first, annotated with author
// profiles and the current identity's like flag, and replaces the local
// snapshot. On store failure the previous snapshot is left untouched:
// stale-but-consistent beats empty-and-broken.
func (f *StoryFeed) FetchFeed(ctx context.Context) ([]models.Story, error) {
	identity := f.session.CurrentIdentity(ctx)

	var stories []models.Story
	if err := f.store.Select(ctx, store.TableStories, nil, store.OrderCreatedDesc, &stories); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}

	authors, err := f.loadAuthors(ctx, storyAuthorIDs(stories))
	if err != nil {
		return nil, err
	}

	liked := map[string]bool{}
	if identity != nil {
		likes, err := f.userLikes(ctx, identity.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range likes {
			if l.StoryID != nil {
				liked[*l.StoryID] = true
			}
		}
	}

	for i := range stories {
		stories[i].Author = authors[stories[i].UserID]
		stories[i].UserLiked = liked[stories[i].ID]
	}

	f.mu.Lock()
	f.feed = stories
	f.mu.Unlock()
	return stories, nil
}

// CreateStory validates the input, inserts the story, and prepends it to the
// local snapshot. Requires a signed-in identity.
func (f *StoryFeed) CreateStory(ctx context.Context, input CreateStoryInput) (models.Story, error) {
	identity := f.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.Story{}, models.NewUnauthenticatedError("must be signed in to share a story")
	}

	if utf8.RuneCountInString(input.Title) < TitleMinLen {
		return models.Story{}, models.NewValidationError("title",
			fmt.Sprintf("must be at least %d characters", TitleMinLen))
	}
	if utf8.RuneCountInString(input.Content) < ContentMinLen {
		return models.Story{}, models.NewValidationError("content",
			fmt.Sprintf("must be at least %d characters", ContentMinLen))
	}
	category, ok := models.NormalizeCategory(input.Category)
	if !ok {
		return models.Story{}, models.NewValidationError("category",
			"must be one of success_story, challenge, insight, question")
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	story := models.Story{
		UserID:   identity.ID,
		Title:    input.Title,
		Content:  input.Content,
		Category: category,
		RuleID:   input.RuleID,
		Tags:     tags,
	}
	if err := f.store.Insert(ctx, store.TableStories, &story); err != nil {
		return models.Story{}, models.NewStoreUnavailableError(err)
	}

	// Author join is display-only; a failed lookup does not undo the write.
	if authors, err := f.loadAuthors(ctx, []string{identity.ID}); err == nil {
		story.Author = authors[identity.ID]
	}
	story.UserLiked = false

	f.mu.Lock()
	f.feed = append([]models.Story{story}, f.feed...)
	f.mu.Unlock()
	return story, nil
}

// ToggleLike flips the current identity's like on a story: delete the like
// row if one exists, insert one otherwise, then patch the local snapshot.
//
// The check-then-act is deliberately non-atomic: two sessions toggling the
// same (user, story) pair concurrently race, and the store's uniqueness
// constraint on likes is the only guard against a double insert. The local
// patch is applied strictly after the remote write succeeds, so no rollback
// is ever needed.
func (f *StoryFeed) ToggleLike(ctx context.Context, storyID string) error {
	identity := f.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.NewUnauthenticatedError("must be signed in to like stories")
	}

	filter := store.Filter{"user_id": identity.ID, "story_id": storyID}
	var existing []models.Like
	if err := f.store.Select(ctx, store.TableLikes, filter, "", &existing); err != nil {
		return models.NewStoreUnavailableError(err)
	}

	if len(existing) > 0 {
		if _, err := f.store.Delete(ctx, store.TableLikes, filter); err != nil {
			return models.NewStoreUnavailableError(err)
		}
		f.patchStory(storyID, func(s *models.Story) {
			if s.LikesCount > 0 {
				s.LikesCount--
			}
			s.UserLiked = false
		})
		return nil
	}

	like := models.Like{UserID: identity.ID, StoryID: &storyID}
	if err := f.store.Insert(ctx, store.TableLikes, &like); err != nil {
		return models.NewStoreUnavailableError(err)
	}
	f.patchStory(storyID, func(s *models.Story) {
		s.LikesCount++
		s.UserLiked = true
	})
	return nil
}

// DeleteStory removes a story owned by the current identity. The delete is
// filtered by story id AND owner id, so a non-owner's request affects zero
// rows regardless of the store's own permission rules; zero rows is reported
// as NotFound and leaves the snapshot untouched.
func (f *StoryFeed) DeleteStory(ctx context.Context, storyID string) error {
	identity := f.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.NewUnauthenticatedError("must be signed in to delete stories")
	}

	affected, err := f.store.Delete(ctx, store.TableStories,
		store.Filter{"id": storyID, "user_id": identity.ID})
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}
	if affected == 0 {
		return models.NewNotFoundError("story", storyID)
	}

	f.mu.Lock()
	next := make([]models.Story, 0, len(f.feed))
	for _, s := range f.feed {
		if s.ID != storyID {
			next = append(next, s)
		}
	}
	f.feed = next
	f.mu.Unlock()
	return nil
}

// patchStory swaps in a new snapshot with the matching story adjusted.
func (f *StoryFeed) patchStory(storyID string, apply func(*models.Story)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make([]models.Story, len(f.feed))
	copy(next, f.feed)
	for i := range next {
		if next[i].ID == storyID {
			apply(&next[i])
			break
		}
	}
	f.feed = next
}

func (f *StoryFeed) loadAuthors(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	return loadProfiles(ctx, f.store, ids)
}

func (f *StoryFeed) userLikes(ctx context.Context, userID string) ([]models.Like, error) {
	var likes []models.Like
	if err := f.store.Select(ctx, store.TableLikes, store.Filter{"user_id": userID}, "", &likes); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return likes, nil
}

func storyAuthorIDs(stories []models.Story) []string {
	seen := make(map[string]bool, len(stories))
	var ids []string
	for _, s := range stories {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	return ids
}

// loadProfiles fetches the profile rows for the given ids and indexes them.
// An empty id list skips the round-trip.
func loadProfiles(ctx context.Context, st store.RemoteStore, ids []string) (map[string]*models.Profile, error) {
	out := make(map[string]*models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := st.Select(ctx, store.TableProfiles, store.Filter{"id": ids}, "", &profiles); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}
