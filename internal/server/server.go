// Package server contains the HTTP surface for the community API.
package server

import (
	"context"
	"log"
	"strings"
	"time"

	"frameconomics/internal/cache"
	"frameconomics/internal/community"
	"frameconomics/internal/config"
	"frameconomics/internal/middleware"
	"frameconomics/internal/models"
	"frameconomics/internal/session"
	"frameconomics/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "frameconomics-api"
	tokenAudience = "frameconomics-client"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config  *config.Config
	db      *gorm.DB // nil when running on a non-gorm store
	redis   *redis.Client
	store   store.RemoteStore
	session session.Provider
	stats   *community.StatsReader
}

// NewServer creates a server instance wired to PostgreSQL and redis.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := store.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	redisClient := cache.NewClient(cfg.RedisURL)
	remote := store.NewGormStore(db)

	return &Server{
		config:  cfg,
		db:      db,
		redis:   redisClient,
		store:   remote,
		session: session.ContextProvider{},
		stats:   community.NewStatsReader(remote, redisClient),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware
	app.Use(middleware.StructuredLogger())

	// Request metrics
	prometheus := fiberprometheus.New("frameconomics")
	prometheus.RegisterAt(app, "/api/metrics")
	app.Use(prometheus.Middleware)

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health check
	api.Get("/", s.HealthCheck)

	// Public reads
	api.Get("/stats", s.GetStats)
	api.Get("/users/:id", s.GetUserProfile)

	stories := api.Group("/stories")
	stories.Get("/", s.GetStories)
	stories.Get("/:id/comments", s.GetComments)

	// Protected writes
	protected := api.Group("", s.AuthRequired())
	protected.Get("/me", s.GetMyProfile)

	pstories := protected.Group("/stories")
	pstories.Post("/", middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_story"), s.CreateStory)
	// Specific /:id/:resource routes BEFORE generic /:id route
	pstories.Post("/:id/like", s.ToggleStoryLike)
	pstories.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	pstories.Post("/:id/comments/:commentId/like", s.ToggleCommentLike)
	pstories.Delete("/:id/comments/:commentId", s.DeleteComment)
	pstories.Delete("/:id", s.DeleteStory)
}

// HealthCheck handles health check requests.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Frameconomics Community API",
		"status":  "healthy",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It validates the
// bearer token issued by the auth service and stores the resolved identity
// both in fiber locals and on the request context, where the repositories'
// session provider picks it up.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c,
				models.NewUnauthenticatedError("Authorization required"))
		}

		identity, err := s.parseIdentity(tokenString)
		if err != nil {
			return models.RespondWithError(c,
				models.NewUnauthenticatedError("Invalid or expired token"))
		}

		c.Locals("userID", identity.ID)
		c.SetUserContext(session.WithIdentity(c.UserContext(), identity))

		return c.Next()
	}
}

// parseIdentity validates a JWT and extracts the identity claims.
func (s *Server) parseIdentity(tokenString string) (*session.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid subject claim")
	}

	identity := &session.Identity{ID: sub}
	if v, ok := claims["username"].(string); ok {
		identity.Username = v
	}
	if v, ok := claims["name"].(string); ok {
		identity.FullName = v
	}
	if v, ok := claims["avatar_url"].(string); ok {
		identity.AvatarURL = v
	}
	return identity, nil
}

// requestContext returns the request context, with the identity attached for
// public routes where authentication is optional.
func (s *Server) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if session.FromContext(ctx) != nil {
		return ctx
	}
	if tokenString := bearerToken(c); tokenString != "" {
		if identity, err := s.parseIdentity(tokenString); err == nil {
			ctx = session.WithIdentity(ctx, identity)
		}
	}
	return ctx
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Frameconomics Community API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
