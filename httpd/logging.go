package httpd

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/log"
)

// requestLogger logs one structured line per request, tagged with a
// correlation id, by wrapping echo's handler chain with the app's own
// Logger instead of echo's built-in text logger middleware.
func requestLogger(base log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = apperr.KindOf(err).HTTPStatus()
				}
			}

			event := base.Info().
				WithField("request_id", requestID).
				WithField("method", c.Request().Method).
				WithField("path", c.Request().URL.Path).
				WithField("status", status).
				WithField("duration_ms", time.Since(start).Milliseconds())

			if err != nil {
				event = event.WithError(err)
			}

			event.Log("request")

			return err
		}
	}
}
