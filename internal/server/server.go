// Package server contains the HTTP handlers for the comment engine's API.
package server

import (
	"context"
	"log/slog"

	"colloquy/internal/config"
	"colloquy/internal/middleware"
	"colloquy/internal/notifications"
	"colloquy/internal/repository"
	"colloquy/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	logger *slog.Logger
	app    *fiber.App

	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	targetRepo  repository.TargetRepository

	commentSvc    *service.CommentService
	moderationSvc *service.ModerationService
	likeSvc       *service.LikeService

	notifier *notifications.Notifier
}

// NewServer creates a server with all dependencies wired.
func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, logger *slog.Logger) *Server {
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	targetRepo := repository.NewTargetRepository(db)

	s := &Server{
		config:        cfg,
		db:            db,
		logger:        logger,
		commentRepo:   commentRepo,
		likeRepo:      likeRepo,
		targetRepo:    targetRepo,
		commentSvc:    service.NewCommentService(commentRepo, targetRepo),
		moderationSvc: service.NewModerationService(db),
		likeSvc:       service.NewLikeService(likeRepo, commentRepo),
		notifier:      notifications.NewNotifier(rdb, logger),
	}

	app := fiber.New(fiber.Config{
		AppName: "Colloquy API",
	})
	s.app = app
	s.setupMiddleware(app)
	s.setupRoutes(app)
	return s
}

func (s *Server) setupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.StructuredLogger(s.logger))

	prom := fiberprometheus.New("colloquy")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}

func (s *Server) setupRoutes(app *fiber.App) {
	auth := middleware.AuthRequired(s.config.JWTSecret)
	authOpt := middleware.AuthOptional(s.config.JWTSecret)

	api := app.Group("/api")

	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "colloquy",
			"targets": s.targetRepo.Kinds(),
		})
	})

	targets := api.Group("/targets/:kind/:id")
	targets.Get("/comments", authOpt, s.GetCommentTree)
	targets.Post("/comments", auth, s.CreateComment)

	comments := api.Group("/comments/:commentId", auth)
	comments.Post("/edit", s.EditComment)
	comments.Post("/delete", s.DeleteComment)
	comments.Post("/delete-tree", s.DeleteCommentTree)
	comments.Post("/hard-delete-tree", s.HardDeleteCommentTree)
	comments.Post("/archive-tree", s.ArchiveCommentTree)
	comments.Post("/like", s.LikeComment)
}

// Listen starts serving on the configured port.
func (s *Server) Listen() error {
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
