package httpapi

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"ComplianceQueue/internal/usecase"
)

// Server exposes the review queue and pipeline trigger over HTTP. It is a
// thin collaborator surface: all semantics live in the usecase layer.
type Server struct {
	app      *fiber.App
	queue    *usecase.Queue
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// NewServer builds the fiber app and registers all routes.
func NewServer(queue *usecase.Queue, pipeline *usecase.Pipeline, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())

	s := &Server{app: app, queue: queue, pipeline: pipeline, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.health)

	queueRoutes := api.Group("/compliance-queue")
	queueRoutes.Get("/", s.listQueue)
	queueRoutes.Post("/", s.enqueue)
	queueRoutes.Post("/:id/approve", s.approve)
	queueRoutes.Post("/:id/disapprove", s.disapprove)
	queueRoutes.Post("/:id/revert", s.revert)
	queueRoutes.Post("/:id/update-url", s.updateURL)
	queueRoutes.Post("/:id/update-name", s.updateName)
	queueRoutes.Get("/:id/suggest-name", s.suggestName)

	api.Post("/initiate-webscrap", s.initiateWebscrap)
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains connections and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
