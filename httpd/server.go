// Package httpd implements Timeship's HTTP Surface: route registration,
// middleware, and the echo.Echo instance boot/shutdown wiring.
package httpd

import (
	"context"
	stdlog "log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/smilyorg/timeship/config"
	"github.com/smilyorg/timeship/httpd/cors"
	"github.com/smilyorg/timeship/httpd/errorhandler"
	"github.com/smilyorg/timeship/httpd/metrics"
	"github.com/smilyorg/timeship/log"
	"github.com/smilyorg/timeship/storage"
)

// Server owns the echo.Echo instance, the storage registry it serves,
// and the metrics registry it reports through /metrics.
type Server struct {
	echo     *echo.Echo
	registry *storage.Registry
	metrics  *metrics.Metrics
	httpSrv  *http.Server
}

// New builds a Server wired against registry, with routes mounted under
// cfg.APIPrefix and CORS restricted to cfg.CORSAllowedOrigins. logger
// tags every request log line, 5xx error, and net/http-internal error
// (e.g. a broken client connection) with the "httpd" component.
func New(cfg config.Config, registry *storage.Registry, logger log.Logger) (*Server, error) {
	if err := cors.Validate(cfg.CORSAllowedOrigins); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorhandler.New(logger)
	e.Validator = newRequestValidator()

	m := metrics.New()

	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))
	e.Use(cors.Middleware(cfg.CORSAllowedOrigins))
	e.Use(echomw.Gzip())
	e.Use(m.Middleware())

	s := &Server{echo: e, registry: registry, metrics: m}
	s.routes(cfg.APIPrefix)

	s.httpSrv = &http.Server{
		Addr:         cfg.Address,
		Handler:      e,
		ErrorLog:     stdlog.New(logger, "", 0),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(prefix string) {
	s.echo.GET("/ping", handlePing)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	g := s.echo.Group(prefix)

	g.GET("/storages", s.handleStorages)

	g.GET("/storages/:storage/nodes", s.handleNode)
	g.GET("/storages/:storage/nodes/*", s.handleNode)

	g.GET("/storages/:storage/snapshots", s.handleSnapshots)
	g.GET("/storages/:storage/snapshots/*", s.handleSnapshots)

	reserved := []string{http.MethodPost, http.MethodPatch, http.MethodDelete}
	reservedRoutes := []string{
		"/storages/:storage/nodes",
		"/storages/:storage/nodes/*",
		"/storages/:storage/copies",
		"/storages/:storage/copies/*",
		"/storages/:storage/moves",
		"/storages/:storage/moves/*",
		"/storages/:storage/archives",
		"/storages/:storage/archives/*",
	}
	for _, method := range reserved {
		for _, route := range reservedRoutes {
			g.Add(method, route, handleReserved)
		}
	}
}

// Start blocks, serving HTTP until Shutdown is called from another
// goroutine (the graceful-shutdown caller).
func (s *Server) Start() error {
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.httpSrv.Addr
}

// ServeHTTP lets a Server be driven directly against an http.ResponseWriter,
// e.g. from httptest, without going through ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Shutdown stops accepting new connections and waits for in-flight
// requests to complete or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func handlePing(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func handleReserved(c echo.Context) error {
	return echo.NewHTTPError(http.StatusNotImplemented, "this operation is not implemented")
}
