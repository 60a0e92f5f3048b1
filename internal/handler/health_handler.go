package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports the number of connected WebSocket clients
type ClientCounter interface {
	TotalClientCount() int
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db      Pinger
	clients ClientCounter
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, clients ClientCounter) *HealthHandler {
	return &HealthHandler{db: db, clients: clients}
}

// HealthResponse represents the health check body
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	WSClients int    `json:"wsClients"`
}

// Check handles GET /health
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "ok", Database: "ok"}
	if h.clients != nil {
		response.WSClients = h.clients.TotalClientCount()
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check: database unreachable")
		response.Status = "degraded"
		response.Database = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}
