package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/filipesuhett/academic-system/internal/dto"
	"github.com/filipesuhett/academic-system/internal/flatfile"
	"github.com/filipesuhett/academic-system/internal/grading"
	"github.com/filipesuhett/academic-system/internal/middleware"
	"github.com/filipesuhett/academic-system/internal/service"
	"github.com/filipesuhett/academic-system/internal/utils"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) zerolog.Logger {
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		return base.With().Str("correlation_id", correlation).Logger()
	}
	return base
}

// withGuards appends the final handler to route guards.
func withGuards(guards []fiber.Handler, final fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	for _, guard := range guards {
		if guard != nil {
			handlers = append(handlers, guard)
		}
	}
	return append(handlers, final)
}

func validationFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		key := fe.Namespace()
		if idx := strings.Index(key, "."); idx >= 0 {
			key = key[idx+1:]
		}
		if fe.Param() != "" {
			fields[key] = fe.Tag() + "=" + fe.Param()
			continue
		}
		fields[key] = fe.Tag()
	}
	return fields
}

// respondError maps service and engine errors onto the response envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validationErrors validator.ValidationErrors
	var engineErr *grading.ValidationError
	var emptyErr *grading.EmptyClassroomError

	switch {
	case errors.As(err, &validationErrors):
		return utils.SendFieldErrors(c, fiber.StatusBadRequest, "validation failed", validationFields(validationErrors))
	case errors.As(err, &engineErr):
		var fields map[string]string
		if engineErr.Field != "" {
			fields = map[string]string{engineErr.Field: engineErr.Message}
		}
		return utils.SendFieldErrors(c, fiber.StatusBadRequest, err.Error(), fields)
	case errors.As(err, &emptyErr):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, emptyErr.Error())
	case errors.Is(err, dto.ErrInvalidClassroomDocument), errors.Is(err, flatfile.ErrMalformedRecord):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentExists), errors.Is(err, service.ErrTeacherExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, service.ErrTeacherNotFound), errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	default:
		log := requestLogger(logger, c)
		log.Error().Err(err).Str("path", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
