package server

import (
	"frameconomics/internal/models"
	"frameconomics/internal/session"
	"frameconomics/internal/store"

	"github.com/gofiber/fiber/v2"
)

// GetStats handles GET /api/stats. Counts are best-effort: a failing count
// reads as 0 and never turns the dashboard into an error page.
func (s *Server) GetStats(c *fiber.Ctx) error {
	return c.JSON(s.stats.FetchStats(c.UserContext()))
}

// GetUserProfile handles GET /api/users/:id (public, read-only).
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.loadProfile(c, c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/me (protected).
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	identity := session.FromContext(c.UserContext())
	if identity == nil {
		return models.RespondWithError(c,
			models.NewUnauthenticatedError("Authorization required"))
	}
	profile, err := s.loadProfile(c, identity.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) loadProfile(c *fiber.Ctx, id string) (*models.Profile, error) {
	var profiles []models.Profile
	err := s.store.Select(c.UserContext(), store.TableProfiles, store.Filter{"id": id}, "", &profiles)
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	if len(profiles) == 0 {
		return nil, models.NewNotFoundError("profile", id)
	}
	return &profiles[0], nil
}
