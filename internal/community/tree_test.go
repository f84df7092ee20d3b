package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameconomics/internal/models"
)

func flatComment(id, parent string) models.Comment {
	c := models.Comment{ID: id, StoryID: "story-1", UserID: "user-a", Content: "c-" + id}
	if parent != "" {
		c.ParentID = &parent
	}
	return c
}

func treeIDs(forest []*ThreadedComment) []string {
	flat := Flatten(forest)
	ids := make([]string, len(flat))
	for i, c := range flat {
		ids[i] = c.ID
	}
	return ids
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Len(t, BuildTree(nil), 0)
	assert.Len(t, BuildTree([]models.Comment{}), 0)
}

func TestBuildTreeNesting(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("1", ""),
		flatComment("2", "1"),
		flatComment("3", "1"),
		flatComment("4", "2"),
	})

	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, "1", root.ID)

	require.Len(t, root.Replies, 2)
	assert.Equal(t, "2", root.Replies[0].ID)
	assert.Equal(t, "3", root.Replies[1].ID)

	require.Len(t, root.Replies[0].Replies, 1)
	assert.Equal(t, "4", root.Replies[0].Replies[0].ID)
	assert.Empty(t, root.Replies[1].Replies)
}

func TestBuildTreePreservesOrder(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("r1", ""),
		flatComment("a", "r2"),
		flatComment("r2", ""),
		flatComment("b", "r2"),
		flatComment("r3", ""),
	})

	require.Len(t, forest, 3)
	assert.Equal(t, "r1", forest[0].ID)
	assert.Equal(t, "r2", forest[1].ID)
	assert.Equal(t, "r3", forest[2].ID)

	// Reply order follows input order even when a reply precedes its parent.
	require.Len(t, forest[1].Replies, 2)
	assert.Equal(t, "a", forest[1].Replies[0].ID)
	assert.Equal(t, "b", forest[1].Replies[1].ID)
}

func TestBuildTreeEveryCommentAppearsExactlyOnce(t *testing.T) {
	input := []models.Comment{
		flatComment("1", ""),
		flatComment("2", "1"),
		flatComment("3", "missing"),
		flatComment("4", "4"),
		flatComment("5", "6"),
		flatComment("6", "5"),
		flatComment("7", "2"),
	}

	forest := BuildTree(input)
	ids := treeIDs(forest)

	assert.Len(t, ids, len(input))
	seen := map[string]int{}
	for _, id := range ids {
		seen[id]++
	}
	for _, c := range input {
		assert.Equal(t, 1, seen[c.ID], "comment %s", c.ID)
	}
}

func TestBuildTreeSelfParentBecomesRoot(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("1", ""),
		flatComment("2", "2"),
	})

	require.Len(t, forest, 2)
	assert.Equal(t, "1", forest[0].ID)
	assert.Equal(t, "2", forest[1].ID)
	assert.Empty(t, forest[1].Replies)
}

func TestBuildTreeDanglingParentBecomesRoot(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("1", ""),
		flatComment("2", "deleted-elsewhere"),
	})

	require.Len(t, forest, 2)
	assert.Equal(t, "2", forest[1].ID)
}

func TestBuildTreeTwoNodeCycle(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("a", "b"),
		flatComment("b", "a"),
	})

	ids := treeIDs(forest)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	// The first trapped comment is promoted; the other hangs off it.
	require.Len(t, forest, 1)
	assert.Equal(t, "a", forest[0].ID)
}

func TestBuildTreeThreeNodeCycleWithChild(t *testing.T) {
	forest := BuildTree([]models.Comment{
		flatComment("a", "b"),
		flatComment("b", "c"),
		flatComment("c", "a"),
		flatComment("d", "a"),
	})

	ids := treeIDs(forest)
	assert.Len(t, ids, 4)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids)
}

func TestFlattenGuardsAgainstRevisits(t *testing.T) {
	// Hand-build a malformed forest where one node is reachable twice.
	shared := &ThreadedComment{Comment: models.Comment{ID: "shared"}}
	forest := []*ThreadedComment{
		{Comment: models.Comment{ID: "r1"}, Replies: []*ThreadedComment{shared}},
		{Comment: models.Comment{ID: "r2"}, Replies: []*ThreadedComment{shared}},
	}

	flat := Flatten(forest)
	assert.Len(t, flat, 3)
}
