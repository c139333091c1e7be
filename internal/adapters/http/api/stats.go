// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves class statistics and the operational summary.
type StatsHandler struct {
	roster        Roster
	statsProvider StatsProvider
	logger        logger.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(roster Roster, statsProvider StatsProvider, log logger.Logger) *StatsHandler {
	return &StatsHandler{roster: roster, statsProvider: statsProvider, logger: log}
}

// HandleClassStats handles GET /api/stats requests.
func (h *StatsHandler) HandleClassStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.class_stats"
	summaries, err := h.roster.Stats(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	if summaries == nil {
		summaries = []model.ClassSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleStatus handles GET /status requests.
func (h *StatsHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
