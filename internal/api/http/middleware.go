package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tablebook/reservation-service/internal/api/dto"
	"github.com/tablebook/reservation-service/internal/observability"
	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// RegisterMiddlewares installs the global chain: recovery and error rendering
// outermost, then the request deadline, then the access log.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(recoverAndRender(ErrorHandler(logger, metrics), logger))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// ErrorHandler renders err as the uniform error body. Only the code and its
// fixed message leave the process; causes of 5xx responses are logged. It is
// also suitable as fiber.Config.ErrorHandler.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.Error(domainErr))
		}
		return c.Status(domainErr.HTTPStatus).JSON(dto.ErrorResponse{
			StatusCode:   domainErr.HTTPStatus,
			ErrorCode:    domainErr.Code,
			ErrorMessage: domainErr.Message,
		})
	}
}

func recoverAndRender(render fiber.ErrorHandler, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = render(c, err)
			}
		}()
		return c.Next()
	}
}
