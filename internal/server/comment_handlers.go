package server

import (
	"frameconomics/internal/community"
	"frameconomics/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) thread(storyID string) *community.CommentThread {
	return community.NewCommentThread(s.store, s.session, storyID)
}

// GetComments handles GET /api/stories/:id/comments (public). Returns the
// threaded tree, roots oldest first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := s.requestContext(c)
	storyID := c.Params("id")

	tree, err := s.thread(storyID).FetchComments(ctx)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if tree == nil {
		tree = []*community.ThreadedComment{}
	}
	return c.JSON(tree)
}

// CreateComment handles POST /api/stories/:id/comments (protected).
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storyID := c.Params("id")

	var req struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("body", "is not valid JSON"))
	}

	comment, err := s.thread(storyID).CreateComment(ctx, req.Content, req.ParentID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ToggleCommentLike handles POST /api/stories/:id/comments/:commentId/like
// (protected). Responds with the refreshed tree, since nested like counts
// are rebuilt rather than patched.
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storyID := c.Params("id")
	commentID := c.Params("commentId")

	thread := s.thread(storyID)
	if err := thread.ToggleLike(ctx, commentID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(thread.Tree())
}

// DeleteComment handles DELETE /api/stories/:id/comments/:commentId
// (protected, owner only). Replies of the deleted comment surface as roots
// in the returned tree.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storyID := c.Params("id")
	commentID := c.Params("commentId")

	thread := s.thread(storyID)
	if err := thread.DeleteComment(ctx, commentID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(thread.Tree())
}
