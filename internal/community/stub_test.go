package community

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"frameconomics/internal/models"
	"frameconomics/internal/session"
	"frameconomics/internal/store"
)

var errNetwork = errors.New("network down")

// flakyStore wraps a working store and fails selected operations on demand,
// standing in for a remote store with transport trouble.
type flakyStore struct {
	store.RemoteStore
	failSelect bool
	failDelete bool
	failCount  map[string]bool
}

func (f *flakyStore) Select(ctx context.Context, table string, filters store.Filter, orderBy string, dest any) error {
	if f.failSelect {
		return errNetwork
	}
	return f.RemoteStore.Select(ctx, table, filters, orderBy, dest)
}

func (f *flakyStore) Delete(ctx context.Context, table string, filters store.Filter) (int64, error) {
	if f.failDelete {
		return 0, errNetwork
	}
	return f.RemoteStore.Delete(ctx, table, filters)
}

func (f *flakyStore) Count(ctx context.Context, table string, filters store.Filter) (int64, error) {
	if f.failCount[table] {
		return 0, errNetwork
	}
	return f.RemoteStore.Count(ctx, table, filters)
}

func asIdentity(p models.Profile) *session.Identity {
	return &session.Identity{ID: p.ID, Username: p.Username, FullName: p.FullName}
}

func seedProfile(t *testing.T, mem *store.MemoryStore, username string) models.Profile {
	t.Helper()
	p := models.Profile{
		Email:    username + "@example.com",
		FullName: username,
		Username: username,
		Provider: "github",
	}
	require.NoError(t, mem.Insert(context.Background(), store.TableProfiles, &p))
	return p
}

func seedStory(t *testing.T, mem *store.MemoryStore, author models.Profile, title string) models.Story {
	t.Helper()
	s := models.Story{
		UserID:   author.ID,
		Title:    title,
		Content:  "a community story long enough to pass validation",
		Category: models.CategoryInsight,
		Tags:     []string{},
	}
	require.NoError(t, mem.Insert(context.Background(), store.TableStories, &s))
	return s
}

func seedComment(t *testing.T, mem *store.MemoryStore, story models.Story, author models.Profile, content string, parentID *string) models.Comment {
	t.Helper()
	c := models.Comment{
		StoryID:  story.ID,
		UserID:   author.ID,
		Content:  content,
		ParentID: parentID,
	}
	require.NoError(t, mem.Insert(context.Background(), store.TableComments, &c))
	return c
}
