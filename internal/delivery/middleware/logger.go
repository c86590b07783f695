package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"erp/config"
	"erp/internal/delivery/api/validator"
	deliverycontext "erp/internal/delivery/context"
	domainerrors "erp/internal/domain/errors"
)

// AccessLog writes one line per request when debug is enabled.
func AccessLog(logger *slog.Logger, cfg *config.Config) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(echo.Context) bool {
			return !cfg.Env.Debug
		},
		LogLatency:   true,
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			status := responseStatus(v)

			fields := []slog.Attr{
				slog.String("request_id", deliverycontext.GetRequestID(c)),
				slog.String("method", v.Method),
				slog.String("uri", v.URIPath),
				slog.Int("status", status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("user_agent", v.UserAgent),
			}
			if claims := deliverycontext.GetClaims(c); claims != nil {
				fields = append(fields, slog.Any("user_id", claims.UserID), slog.String("role", claims.Role.String()))
			}
			if query := c.Request().URL.RawQuery; query != "" {
				fields = append(fields, slog.String("query", query))
			}
			if v.Error != nil {
				fields = append(fields, slog.Any("error", v.Error))
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.LogAttrs(c.Request().Context(), level, "HTTP Request", fields...)

			return nil
		},
	})
}

// responseStatus predicts the status the error handler will write for v.Error.
func responseStatus(v echomiddleware.RequestLoggerValues) int {
	if v.Error == nil {
		return v.Status
	}

	var validationErr *validator.ValidationError
	if errors.As(v.Error, &validationErr) {
		return domainerrors.ErrValidationFailed.HTTPCode()
	}
	var appErr domainerrors.AppError
	if errors.As(v.Error, &appErr) {
		return appErr.HTTPCode()
	}
	var httpErr *echo.HTTPError
	if errors.As(v.Error, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
