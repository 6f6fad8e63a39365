package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/filipesuhett/academic-system/internal/config"
	"github.com/filipesuhett/academic-system/internal/registry"
	"github.com/filipesuhett/academic-system/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	GradingPolicy string    `json:"grading_policy"`
	Students      int       `json:"students"`
	Teachers      int       `json:"teachers"`
	Classrooms    int       `json:"classrooms"`
}

// HealthCheck reports service metadata and registry sizes.
func HealthCheck(cfg config.Config, reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			GradingPolicy: cfg.GradingPolicy.String(),
		}
		if reg != nil {
			payload.Students = reg.LenStudents()
			payload.Teachers = reg.LenTeachers()
			payload.Classrooms = reg.LenClassrooms()
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
