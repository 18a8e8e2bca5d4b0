// Package errorhandler implements Timeship's fixed error envelope: every
// error response is JSON shaped as { "message": "<title>: <detail>",
// "status": false } with Content-Type: application/problem+json.
package errorhandler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smilyorg/timeship/apperr"
	"github.com/smilyorg/timeship/log"
)

// Envelope is the fixed JSON error body.
type Envelope struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
}

// title returns the conventional HTTP reason phrase for code.
func title(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Error"
}

// New returns an echo.HTTPErrorHandler that classifies err, picks the
// HTTP status, and writes the envelope exactly once. 5xx failures are
// logged through logger; anything below that is treated as a normal,
// expected outcome (a bad request, a missing path) not worth a log line.
func New(logger log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := apperr.KindOf(err).HTTPStatus()
		detail := err.Error()

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				detail = msg
			}
		}

		envelope := Envelope{
			Message: title(code) + ": " + detail,
			Status:  false,
		}

		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		if sendErr := c.JSON(code, envelope); sendErr != nil {
			logger.Error().WithError(sendErr).Log("failed to write error envelope")
		}

		if code >= http.StatusInternalServerError {
			logger.Error().WithError(err).WithField("path", c.Request().URL.Path).Log("request failed")
		}
	}
}
