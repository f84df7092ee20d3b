package server

import (
	"frameconomics/internal/community"
	"frameconomics/internal/models"

	"github.com/gofiber/fiber/v2"
)

// feed builds a request-scoped story feed repository. Each HTTP request is
// its own view; the repository's snapshot cache lives and dies with it.
func (s *Server) feed() *community.StoryFeed {
	return community.NewStoryFeed(s.store, s.session)
}

// GetStories handles GET /api/stories (public; like flags resolve against
// the caller's token when one is presented).
func (s *Server) GetStories(c *fiber.Ctx) error {
	ctx := s.requestContext(c)

	stories, err := s.feed().FetchFeed(ctx)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(stories)
}

// CreateStory handles POST /api/stories (protected).
func (s *Server) CreateStory(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var input community.CreateStoryInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("body", "is not valid JSON"))
	}

	story, err := s.feed().CreateStory(ctx, input)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// ToggleStoryLike handles POST /api/stories/:id/like (protected). The same
// endpoint likes and unlikes; the response carries the story's new state.
func (s *Server) ToggleStoryLike(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storyID := c.Params("id")

	feed := s.feed()
	if err := feed.ToggleLike(ctx, storyID); err != nil {
		return models.RespondWithError(c, err)
	}

	stories, err := feed.FetchFeed(ctx)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	for _, story := range stories {
		if story.ID == storyID {
			return c.JSON(story)
		}
	}
	return models.RespondWithError(c, models.NewNotFoundError("story", storyID))
}

// DeleteStory handles DELETE /api/stories/:id (protected, owner only — a
// non-owner's delete touches zero rows and comes back as 404).
func (s *Server) DeleteStory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storyID := c.Params("id")

	if err := s.feed().DeleteStory(ctx, storyID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
