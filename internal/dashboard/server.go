package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gistlabs/knowbase/internal/knowledge"
	"github.com/gistlabs/knowbase/internal/searcher"
	"github.com/gistlabs/knowbase/pkg/types"
)

// Server is the read-only HTTP API backing the dashboard UI.
type Server struct {
	echo    *echo.Echo
	service *knowledge.Service
	logger  *slog.Logger
}

// New builds the dashboard server over the knowledge service. The
// server never writes; ingestion and deletion go through the MCP
// tools.
func New(svc *knowledge.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}))

	s := &Server{
		echo:    e,
		service: svc,
		logger:  logger,
	}

	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Warn("http error", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/stats", s.handleStats)
	api.GET("/entries", s.handleEntries)

	return s
}

// Start listens on addr and blocks until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("dashboard listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.service.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	byCategory := make(map[string]int, len(stats.PerNamespace))
	for _, ns := range stats.PerNamespace {
		byCategory[ns.Namespace] = ns.Count
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"total_entries":  stats.TotalEntries,
		"by_category":    byCategory,
		"recent_entries": entriesJSON(stats.RecentEntries),
	})
}

func (s *Server) handleEntries(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		category = searcher.ScopeAll
	}

	limit := knowledge.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
	}

	entries, err := s.service.ListEntries(c.Request().Context(), category, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entriesJSON(entries),
	})
}

func entriesJSON(entries []types.EntrySummary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"entry_id": e.EntryID,
			"title":    e.Title,
			"url":      e.URL,
			"category": e.Namespace,
			"status":   e.Status,
			"added_by": e.AddedBy,
			"added_at": e.AddedAt.Format(time.RFC3339),
		})
	}
	return out
}
