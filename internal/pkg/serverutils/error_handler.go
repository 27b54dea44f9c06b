package serverutils

import (
	"errors"

	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/internal/service"
	"virtual-doctor-be/pkg/intake"
	"virtual-doctor-be/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// ErrRateLimited is returned by RateLimitMiddleware.
var ErrRateLimited = errors.New("too many requests")

// StatusFor maps an error to the HTTP status and the message shown to clients.
// Internal details of 5xx failures are logged, not returned.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, ErrRateLimited):
		return fiber.StatusTooManyRequests, err.Error()
	case errors.Is(err, session.ErrConcurrentUpdate):
		return fiber.StatusConflict, "session was updated by another request, please retry"
	case errors.Is(err, intake.ErrUpstreamExhausted):
		return fiber.StatusInternalServerError, "the assistant is temporarily unavailable, please try again"
	case errors.Is(err, intake.ErrUpstream), errors.Is(err, intake.ErrMalformedResponse):
		return fiber.StatusInternalServerError, "the assistant could not process this message"
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	default:
		return fiber.StatusInternalServerError, "failed to process message"
	}
}

func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
