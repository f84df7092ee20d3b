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

// CommentThread fetches and mutates the comment tree of a single story.
//
// Every write (create, like toggle, delete) is followed by a full
// refetch-and-rebuild rather than a local patch: patching like counts or
// reply lists inside a nested tree is error-prone, and the round-trip buys
// guaranteed consistency with the authoritative store. The rebuilt tree is
// swapped in as a new snapshot, never edited in place.
type CommentThread struct {
	store   store.RemoteStore
	session session.Provider
	storyID string

	mu   sync.RWMutex
	tree []*ThreadedComment
}

// NewCommentThread creates a comment repository scoped to one story.
func NewCommentThread(st store.RemoteStore, sess session.Provider, storyID string) *CommentThread {
	return &CommentThread{store: st, session: sess, storyID: storyID}
}

// StoryID reports which story this thread belongs to.
func (t *CommentThread) StoryID() string { return t.storyID }

// Tree returns the last fetched thread snapshot.
func (t *CommentThread) Tree() []*ThreadedComment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree
}

// FetchComments retrieves the story's flat comment list (oldest first),
// annotates each comment with its author profile and the current identity's
// like flag, builds the threaded tree and replaces the local snapshot. On
// store failure the previous snapshot is left untouched.
func (t *CommentThread) FetchComments(ctx context.Context) ([]*ThreadedComment, error) {
	identity := t.session.CurrentIdentity(ctx)

	var comments []models.Comment
	err := t.store.Select(ctx, store.TableComments,
		store.Filter{"story_id": t.storyID}, store.OrderCreatedAsc, &comments)
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}

	authors, err := loadProfiles(ctx, t.store, commentAuthorIDs(comments))
	if err != nil {
		return nil, err
	}

	liked := map[string]bool{}
	if identity != nil && len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		var likes []models.Like
		err := t.store.Select(ctx, store.TableLikes,
			store.Filter{"user_id": identity.ID, "comment_id": ids}, "", &likes)
		if err != nil {
			return nil, models.NewStoreUnavailableError(err)
		}
		for _, l := range likes {
			if l.CommentID != nil {
				liked[*l.CommentID] = true
			}
		}
	}

	for i := range comments {
		comments[i].Author = authors[comments[i].UserID]
		comments[i].UserLiked = liked[comments[i].ID]
	}

	tree := BuildTree(comments)

	t.mu.Lock()
	t.tree = tree
	t.mu.Unlock()
	return tree, nil
}

// CreateComment validates and inserts a comment, then refetches the whole
// thread so the tree is rebuilt from authoritative data. A supplied parentID
// is passed through untouched; whether it references a comment of the same
// story is the store's concern.
func (t *CommentThread) CreateComment(ctx context.Context, content string, parentID *string) (models.Comment, error) {
	identity := t.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.Comment{}, models.NewUnauthenticatedError("must be signed in to comment")
	}

	if content == "" {
		return models.Comment{}, models.NewValidationError("content", "is required")
	}
	if utf8.RuneCountInString(content) > CommentMaxLen {
		return models.Comment{}, models.NewValidationError("content",
			fmt.Sprintf("must be at most %d characters", CommentMaxLen))
	}

	comment := models.Comment{
		StoryID:  t.storyID,
		UserID:   identity.ID,
		Content:  content,
		ParentID: parentID,
	}
	if err := t.store.Insert(ctx, store.TableComments, &comment); err != nil {
		return models.Comment{}, models.NewStoreUnavailableError(err)
	}

	if authors, err := loadProfiles(ctx, t.store, []string{identity.ID}); err == nil {
		comment.Author = authors[identity.ID]
	}

	if _, err := t.FetchComments(ctx); err != nil {
		return comment, err
	}
	return comment, nil
}

// ToggleLike flips the current identity's like on a comment, then refetches
// the thread. Same check-then-act caveats as StoryFeed.ToggleLike; unlike
// story likes there is no local count patch at all, the refetch is the
// authoritative update.
func (t *CommentThread) ToggleLike(ctx context.Context, commentID string) error {
	identity := t.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.NewUnauthenticatedError("must be signed in to like comments")
	}

	filter := store.Filter{"user_id": identity.ID, "comment_id": commentID}
	var existing []models.Like
	if err := t.store.Select(ctx, store.TableLikes, filter, "", &existing); err != nil {
		return models.NewStoreUnavailableError(err)
	}

	if len(existing) > 0 {
		if _, err := t.store.Delete(ctx, store.TableLikes, filter); err != nil {
			return models.NewStoreUnavailableError(err)
		}
	} else {
		like := models.Like{UserID: identity.ID, CommentID: &commentID}
		if err := t.store.Insert(ctx, store.TableLikes, &like); err != nil {
			return models.NewStoreUnavailableError(err)
		}
	}

	_, err := t.FetchComments(ctx)
	return err
}

// DeleteComment removes a comment owned by the current identity (the delete
// is filtered by comment id AND owner id), then refetches the thread.
//
// Deleting a comment that has replies is allowed: its replies are left in
// the store with a dangling parent_id and surface as roots on the next tree
// build, per the BuildTree promotion policy.
func (t *CommentThread) DeleteComment(ctx context.Context, commentID string) error {
	identity := t.session.CurrentIdentity(ctx)
	if identity == nil {
		return models.NewUnauthenticatedError("must be signed in to delete comments")
	}

	affected, err := t.store.Delete(ctx, store.TableComments,
		store.Filter{"id": commentID, "user_id": identity.ID})
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}
	if affected == 0 {
		return models.NewNotFoundError("comment", commentID)
	}

	_, err = t.FetchComments(ctx)
	return err
}

func commentAuthorIDs(comments []models.Comment) []string {
	seen := make(map[string]bool, len(comments))
	var ids []string
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	return ids
}
