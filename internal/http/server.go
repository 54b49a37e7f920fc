// Package http provides the HTTP API for queryd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/logging"
)

// Server exposes the query service over HTTP.
type Server struct {
	echo    *echo.Echo
	svc     *assistant.Service
	log     *logging.Logger
	config  *Config
	metrics *HTTPMetrics
}

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	BodyLimit       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RetryAfter is advertised on 503 responses while a circuit cools
	// down.
	RetryAfter time.Duration

	// Version is reported by GET /health.
	Version string
}

func defaultConfig() *Config {
	return &Config{
		Addr:            ":9090",
		BodyLimit:       "1M",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		RetryAfter:      5 * time.Minute,
	}
}

// requestIDPattern matches IDs safe to attach to the logging context.
// Client-supplied X-Request-ID values that fail it are left out of the
// context; the response header still echoes them.
var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NewServer creates the HTTP server. The assistant service and logger
// are required; a nil config uses defaults.
func NewServer(svc *assistant.Service, log *logging.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("assistant service cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = defaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.WriteTimeout
	}

	metrics := NewHTTPMetrics(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(requestContext())
	e.Use(requestLogging(log))
	e.Use(metrics.Middleware())

	s := &Server{
		echo:    e,
		svc:     svc,
		log:     log,
		config:  cfg,
		metrics: metrics,
	}
	s.registerRoutes()
	return s, nil
}

// requestContext copies the request ID into the request context so
// handler logs carry it.
func requestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestIDPattern.MatchString(rid) {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
			}
			return next(c)
		}
	}
}

// requestLogging logs one line per request. The status is taken from the
// handler error when there is one, since the error handler has not run
// yet at this point in the chain.
func requestLogging(log *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			log.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "starting http server", zap.String("addr", s.config.Addr))
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
