package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"apptracker/internal/service"
)

// StatsHandler serves the per-status counts.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Stats godoc
// @Summary Application counts by status
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Stats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /stats [get]
func (h *StatsHandler) Stats(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return fail(c, err)
	}

	stats, err := h.statsService.StatsFor(c.Request().Context(), owner)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}
