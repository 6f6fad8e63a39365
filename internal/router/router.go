package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/filipesuhett/academic-system/internal/config"
	"github.com/filipesuhett/academic-system/internal/handler"
	"github.com/filipesuhett/academic-system/internal/middleware"
	"github.com/filipesuhett/academic-system/internal/observability"
	"github.com/filipesuhett/academic-system/internal/registry"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Registry         *registry.Registry
	StudentHandler   *handler.StudentHandler
	TeacherHandler   *handler.TeacherHandler
	ClassroomHandler *handler.ClassroomHandler
	ReportHandler    *handler.ReportHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Reads are public; writes
// need a bearer token with a teacher or admin role, and teachers are registered by admins.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Registry))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	limiter := middleware.RateLimit("writes", cfg.RateLimit, time.Minute)
	staffOnly := []fiber.Handler{jwtMiddleware, middleware.RequireRole(middleware.RoleTeacher, middleware.RoleAdmin), limiter}
	adminOnly := []fiber.Handler{jwtMiddleware, middleware.RequireRole(middleware.RoleAdmin), limiter}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students"), staffOnly...)
	}
	if deps.TeacherHandler != nil {
		deps.TeacherHandler.Register(api.Group("/teachers"), adminOnly...)
	}
	if deps.ClassroomHandler != nil {
		deps.ClassroomHandler.Register(api.Group("/classrooms"), staffOnly...)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports"))
	}
}
