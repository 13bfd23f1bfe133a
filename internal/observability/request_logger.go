package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tablebook/reservation-service/pkg/util"
)

// RequestIDHeader echoes the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request and feeds the request counters.
// Route patterns, not raw paths, key the counters so IDs do not explode them.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			domainErr := apperrors.ToDomainError(err)
			status = domainErr.HTTPStatus
			fields = append(fields, zap.String("error_code", domainErr.Code))
		}
		fields = append(fields, zap.Int("status", status))

		metrics.RecordRequest(c.Route().Path, c.Method(), status, time.Since(start))
		logger.Info("request", fields...)
		return err
	}
}
