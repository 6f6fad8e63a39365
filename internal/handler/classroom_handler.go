package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/service"
	"github.com/filipesuhett/academic-system/internal/utils"
)

// ClassroomHandler serves classroom registration and per-classroom grades.
type ClassroomHandler struct {
	registrations service.RegistrationService
	reports       service.GradeReportService
	logger        zerolog.Logger
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(registrations service.RegistrationService, reports service.GradeReportService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		registrations: registrations,
		reports:       reports,
		logger:        logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register wires classroom routes.
func (h *ClassroomHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", withGuards(guards, h.create)...)
	router.Get("/:id/grades", h.grades)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "classrooms retrieved", h.registrations.ListClassrooms(c.UserContext()))
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	if err := dto.ValidateClassroomDocument(c.Body()); err != nil {
		return respondError(c, h.logger, err, "invalid classroom document")
	}

	var payload dto.ClassroomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.registrations.RegisterClassroom(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register classroom")
	}

	return utils.SendCreated(c, "classroom registered", classroom)
}

func (h *ClassroomHandler) grades(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	policy, err := h.reports.ResolvePolicy(c.Query("policy"))
	if err != nil {
		return respondError(c, h.logger, err, "invalid policy")
	}

	grades, err := h.reports.ClassroomGrades(c.UserContext(), id, policy)
	if err != nil {
		return respondError(c, h.logger, err, "failed to compute classroom grades")
	}

	return utils.SendSuccess(c, "classroom grades computed", grades)
}
