package http

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
	"github.com/fyrsmithlabs/queryd/internal/logging"
)

// sessionIDPattern matches session identifiers accepted from clients.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Kind      string `json:"kind"`
	Query     string `json:"query"`
}

// ComplexityRequest is the request body for POST /api/v1/complexity.
type ComplexityRequest struct {
	Content string `json:"content"`
}

// BreakersResponse is the response body for GET /api/v1/breakers.
type BreakersResponse struct {
	Breakers []breaker.Status `json:"breakers"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.GET("/breakers", s.handleBreakers)
	v1.POST("/complexity", s.handleComplexity)
	v1.GET("/stats", s.handleStats)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.config.Version})
}

// handleQuery routes one query through the assistant service.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.log.Warn(c.Request().Context(), "invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind field is required")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	ctx := c.Request().Context()
	if req.SessionID != "" {
		if !sessionIDPattern.MatchString(req.SessionID) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
		}
		ctx = logging.WithSessionID(ctx, req.SessionID)
	}

	reply, err := s.svc.Ask(ctx, assistant.Request{
		SessionID: req.SessionID,
		Kind:      req.Kind,
		Query:     req.Query,
	})
	if err != nil {
		return s.queryError(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// queryError maps service errors onto HTTP statuses. Provider failures
// never reach this point as errors; they degrade to fallback replies
// inside the service.
func (s *Server) queryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, assistant.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "query must not be blank")
	case errors.Is(err, assistant.ErrUnknownKind):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, breaker.ErrOverloaded):
		return echo.NewHTTPError(http.StatusTooManyRequests,
			"cognitive load too high, try a narrower question")
	case errors.Is(err, breaker.ErrOpen):
		c.Response().Header().Set("Retry-After",
			strconv.Itoa(int(s.config.RetryAfter.Seconds())))
		return echo.NewHTTPError(http.StatusServiceUnavailable,
			"assistant temporarily unavailable, circuit is cooling down")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, "query failed")
	}
}

// handleBreakers reports every breaker's current state.
func (s *Server) handleBreakers(c echo.Context) error {
	return c.JSON(http.StatusOK, BreakersResponse{Breakers: s.svc.Breakers()})
}

// handleComplexity scores content without routing it.
func (s *Server) handleComplexity(c echo.Context) error {
	var req ComplexityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content field is required")
	}
	return c.JSON(http.StatusOK, s.svc.Assess(req.Content))
}

// handleStats reports the service counters.
func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Stats())
}
