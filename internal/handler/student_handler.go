package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/service"
	"github.com/filipesuhett/academic-system/internal/utils"
)

// StudentHandler serves student registration and listing.
type StudentHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.RegistrationService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes. guards run before every write.
func (h *StudentHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", withGuards(guards, h.create)...)
	router.Post("/import", withGuards(guards, h.importFile)...)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "students retrieved", h.service.ListStudents(c.UserContext()))
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.RegisterStudent(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register student")
	}

	return utils.SendCreated(c, "student registered", student)
}

func (h *StudentHandler) importFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := header.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	result, err := h.service.ImportStudents(c.UserContext(), file)
	if err != nil {
		return respondError(c, h.logger, err, "failed to import students")
	}

	return utils.SendSuccess(c, "students imported", result)
}
