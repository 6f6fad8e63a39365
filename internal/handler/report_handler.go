package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/filipesuhett/academic-system/internal/service"
	"github.com/filipesuhett/academic-system/internal/utils"
)

// ReportHandler serves the grade rollup across every classroom.
type ReportHandler struct {
	service service.GradeReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.GradeReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register wires report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/grades", h.grades)
}

func (h *ReportHandler) grades(c *fiber.Ctx) error {
	policy, err := h.service.ResolvePolicy(c.Query("policy"))
	if err != nil {
		return respondError(c, h.logger, err, "invalid policy")
	}

	report, err := h.service.Report(c.UserContext(), policy)
	if err != nil {
		return respondError(c, h.logger, err, "failed to compute grade report")
	}

	return utils.SendSuccess(c, "grade report computed", report)
}
