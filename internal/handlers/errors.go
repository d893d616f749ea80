package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"certcy/career-api/internal/apperr"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewErrorHandler renders every error returned by a handler as
// {"error": {"message", "code"}}. Only the public message of an apperr.Error
// reaches the client; wrapped causes are logged.
func NewErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := errorBody{Message: "internal server error", Code: string(apperr.KindPersistenceFailed)}

		var appErr *apperr.Error
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &appErr):
			status = appErr.Status()
			body = errorBody{Message: appErr.Message, Code: string(appErr.Kind)}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			body = errorBody{Message: fiberErr.Message, Code: statusCode(fiberErr.Code)}
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}

		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}

func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

func parseID(value, field string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, apperr.Validation(field + " is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + field)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("invalid request payload")
	}
	return nil
}
