package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/service"
	"github.com/filipesuhett/academic-system/internal/utils"
)

// TeacherHandler serves teacher registration and listing.
type TeacherHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewTeacherHandler constructs the handler.
func NewTeacherHandler(service service.RegistrationService, logger zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		service: service,
		logger:  logger.With().Str("component", "teacher_handler").Logger(),
	}
}

// Register wires teacher routes.
func (h *TeacherHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", withGuards(guards, h.create)...)
}

func (h *TeacherHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "teachers retrieved", h.service.ListTeachers(c.UserContext()))
}

func (h *TeacherHandler) create(c *fiber.Ctx) error {
	var payload dto.TeacherCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	teacher, err := h.service.RegisterTeacher(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register teacher")
	}

	return utils.SendCreated(c, "teacher registered", teacher)
}
