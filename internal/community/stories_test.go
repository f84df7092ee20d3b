package community

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameconomics/internal/models"
	"frameconomics/internal/session"
	"frameconomics/internal/store"
)

func TestFetchFeedNewestFirstWithAuthors(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	first := seedStory(t, mem, author, "The first story")
	second := seedStory(t, mem, author, "The second story")

	feed := NewStoryFeed(mem, session.StaticProvider{})
	stories, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2)

	// Newest first; the memory store breaks identical timestamps by id, so
	// compare as a set plus the invariant that both authors resolved.
	got := []string{stories[0].ID, stories[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, got)
	for _, s := range stories {
		require.NotNil(t, s.Author)
		assert.Equal(t, "ada", s.Author.Username)
		assert.False(t, s.UserLiked)
	}
	assert.Len(t, feed.Feed(), 2)
}

func TestCreateStoryRequiresAuthentication(t *testing.T) {
	mem := store.NewMemoryStore()
	feed := NewStoryFeed(mem, session.StaticProvider{})

	_, err := feed.CreateStory(context.Background(), CreateStoryInput{
		Title:    "A valid title",
		Content:  "content which is definitely long enough",
		Category: "insight",
	})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnauthenticated))
}

func TestCreateStoryValidation(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	seedStory(t, mem, author, "Already there one")
	seedStory(t, mem, author, "Already there two")
	seedStory(t, mem, author, "Already there three")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(author)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Feed(), 3)

	tests := []struct {
		name  string
		input CreateStoryInput
		field string
	}{
		{
			name:  "short title",
			input: CreateStoryInput{Title: "Hey", Content: "content which is definitely long enough", Category: "insight"},
			field: "title",
		},
		{
			name:  "short content",
			input: CreateStoryInput{Title: "A valid title", Content: "too short", Category: "insight"},
			field: "content",
		},
		{
			name:  "unknown category",
			input: CreateStoryInput{Title: "A valid title", Content: "content which is definitely long enough", Category: "rant"},
			field: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := feed.CreateStory(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)

			// Validation failures never touch the local cache or the store.
			assert.Len(t, feed.Feed(), 3)
			n, cerr := mem.Count(context.Background(), store.TableStories, nil)
			require.NoError(t, cerr)
			assert.EqualValues(t, 3, n)
		})
	}
}

func TestCreateStoryPrependsToFeed(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	seedStory(t, mem, author, "An older story")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(author)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)

	created, err := feed.CreateStory(context.Background(), CreateStoryInput{
		Title:    "A fresh story",
		Content:  "content which is definitely long enough",
		Category: "question",
		Tags:     []string{"mindset"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.CategoryQuestion, created.Category)
	assert.Equal(t, 0, created.LikesCount)
	assert.False(t, created.UserLiked)
	require.NotNil(t, created.Author)
	assert.Equal(t, "ada", created.Author.Username)

	cached := feed.Feed()
	require.Len(t, cached, 2)
	assert.Equal(t, created.ID, cached[0].ID)
}

func TestCreateStoryNormalizesLegacyCategory(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(author)})
	created, err := feed.CreateStory(context.Background(), CreateStoryInput{
		Title:    "A valid title",
		Content:  "content which is definitely long enough",
		Category: "success",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategorySuccessStory, created.Category)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	reader := seedProfile(t, mem, "grace")
	story := seedStory(t, mem, author, "A likeable story")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(reader)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)

	// Like: count goes 0 -> 1 locally and remotely.
	require.NoError(t, feed.ToggleLike(context.Background(), story.ID))
	cached := findStory(t, feed.Feed(), story.ID)
	assert.Equal(t, 1, cached.LikesCount)
	assert.True(t, cached.UserLiked)

	var rows []models.Like
	require.NoError(t, mem.Select(context.Background(), store.TableLikes,
		store.Filter{"user_id": reader.ID, "story_id": story.ID}, "", &rows))
	assert.Len(t, rows, 1)

	// Unlike: back to the original state.
	require.NoError(t, feed.ToggleLike(context.Background(), story.ID))
	cached = findStory(t, feed.Feed(), story.ID)
	assert.Equal(t, 0, cached.LikesCount)
	assert.False(t, cached.UserLiked)

	rows = nil
	require.NoError(t, mem.Select(context.Background(), store.TableLikes,
		store.Filter{"user_id": reader.ID, "story_id": story.ID}, "", &rows))
	assert.Empty(t, rows)
}

func TestToggleLikeRequiresAuthentication(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	story := seedStory(t, mem, author, "A likeable story")

	feed := NewStoryFeed(mem, session.StaticProvider{})
	err := feed.ToggleLike(context.Background(), story.ID)
	assert.True(t, models.IsCode(err, models.CodeUnauthenticated))
}

func TestFetchFeedFailureKeepsCache(t *testing.T) {
	mem := store.NewMemoryStore()
	author := seedProfile(t, mem, "ada")
	seedStory(t, mem, author, "Cached story one")
	seedStory(t, mem, author, "Cached story two")
	seedStory(t, mem, author, "Cached story three")

	flaky := &flakyStore{RemoteStore: mem}
	feed := NewStoryFeed(flaky, session.StaticProvider{Identity: asIdentity(author)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Feed(), 3)

	flaky.failSelect = true
	_, err = feed.FetchFeed(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeStoreUnavailable))

	// A failed refresh never clears a good cache.
	assert.Len(t, feed.Feed(), 3)
}

func TestDeleteStoryNonOwnerAffectsNothing(t *testing.T) {
	mem := store.NewMemoryStore()
	owner := seedProfile(t, mem, "ada")
	intruder := seedProfile(t, mem, "mallory")
	story := seedStory(t, mem, owner, "A protected story")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(intruder)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)

	err = feed.DeleteStory(context.Background(), story.ID)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	// Still in the local feed and still in the store.
	assert.Len(t, feed.Feed(), 1)
	n, cerr := mem.Count(context.Background(), store.TableStories, nil)
	require.NoError(t, cerr)
	assert.EqualValues(t, 1, n)
}

func TestDeleteStoryByOwner(t *testing.T) {
	mem := store.NewMemoryStore()
	owner := seedProfile(t, mem, "ada")
	story := seedStory(t, mem, owner, "A disposable story")

	feed := NewStoryFeed(mem, session.StaticProvider{Identity: asIdentity(owner)})
	_, err := feed.FetchFeed(context.Background())
	require.NoError(t, err)

	require.NoError(t, feed.DeleteStory(context.Background(), story.ID))
	assert.Empty(t, feed.Feed())

	n, cerr := mem.Count(context.Background(), store.TableStories, nil)
	require.NoError(t, cerr)
	assert.EqualValues(t, 0, n)
}

func findStory(t *testing.T, stories []models.Story, id string) models.Story {
	t.Helper()
	for _, s := range stories {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("story %s not in feed", id)
	return models.Story{}
}
