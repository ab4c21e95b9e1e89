package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/handover/handover/internal/platform/auth"
)

// Logger emits one structured line per request. Every state-changing route
// acts on behalf of an authenticated user, so the acting user is logged
// alongside the request whenever auth has resolved one.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			method := c.Request().Method
			path := c.Request().URL.Path

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			rid, _ := c.Get("request_id").(string)
			evt = evt.
				Str("request_id", rid).
				Str("method", method).
				Str("path", path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			// Auth runs inside next, so read the actor off the request
			// context it produced.
			if actor := auth.UserIDFromContext(c.Request().Context()); actor != "" {
				evt = evt.Str("acting_user", actor)
			}

			evt.Msg("request")
			return err
		}
	}
}
