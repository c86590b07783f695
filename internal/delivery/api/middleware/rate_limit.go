package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"erp/config"
	"erp/internal/delivery/api/response"
)

const (
	defaultLoginRate      = 1
	defaultLoginBurst     = 5
	defaultLoginExpiresIn = 3 * time.Minute
)

// NewLoginRateLimiter throttles credential checks per client IP with a token bucket.
func NewLoginRateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	storeCfg := echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(defaultLoginRate),
		Burst:     defaultLoginBurst,
		ExpiresIn: defaultLoginExpiresIn,
	}
	if cfg.Auth != nil && cfg.Auth.LoginRateLimit != nil {
		limit := cfg.Auth.LoginRateLimit
		if limit.Rate > 0 {
			storeCfg.Rate = rate.Limit(limit.Rate)
		}
		if limit.Burst > 0 {
			storeCfg.Burst = limit.Burst
		}
		if limit.ExpiresIn > 0 {
			storeCfg.ExpiresIn = limit.ExpiresIn
		}
	}

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(storeCfg),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.Error(c, http.StatusForbidden, "RATE_LIMIT_IDENTIFIER", "無法辨識用戶端", nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return response.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "登入嘗試過於頻繁，請稍後再試", nil)
		},
	})
}
