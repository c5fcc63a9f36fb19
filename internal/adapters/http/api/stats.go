package api

import (
	"net/http"
)

// StatsProvider exposes service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves service statistics.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats serves GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
