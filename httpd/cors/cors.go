// Package cors builds the echo CORS middleware Timeship's HTTP surface
// installs, configured from TIMESHIP_CORS_ALLOWED_ORIGINS.
//
// It's a thin wrapper around echo/middleware.CORSWithConfig that owns
// validating the configured origin list before it's handed to the
// middleware.
package cors

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Validate checks that every configured origin is either the wildcard
// "*" or a well-formed "scheme://host[:port]" value, with no path.
func Validate(origins []string) error {
	for _, o := range origins {
		if o == "*" {
			continue
		}
		if !looksLikeOrigin(o) {
			return fmt.Errorf("invalid CORS origin %q", o)
		}
	}
	return nil
}

func looksLikeOrigin(o string) bool {
	idx := strings.Index(o, "://")
	if idx <= 0 {
		return false
	}
	rest := o[idx+len("://"):]
	return rest != "" && !strings.Contains(rest, "/")
}

// Middleware builds the echo CORS middleware for the given allowed
// origins.
func Middleware(origins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
	})
}
