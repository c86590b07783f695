package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	deliverycontext "erp/internal/delivery/context"
)

// RequestID reuses the client's X-Request-Id or generates one, echoes it back and
// stores a logger tagged with it in the request context.
func RequestID(logger *slog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: deliverycontext.HeaderXRequestID,
		RequestIDHandler: func(c echo.Context, requestID string) {
			deliverycontext.SetRequestID(c, requestID)

			ctx := deliverycontext.WithRequestID(c.Request().Context(), requestID)
			ctx = deliverycontext.WithLogger(ctx, logger.With(slog.String("request_id", requestID)))
			c.SetRequest(c.Request().WithContext(ctx))
		},
	})
}
