package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

func (h *Handlers) StatsSummary(w http.ResponseWriter, r *http.Request) {
	m, err := h.statsService.Summary(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) StatsTrends(w http.ResponseWriter, r *http.Request) {
	tf := domain.Timeframe(r.URL.Query().Get("timeframe"))
	if tf == "" {
		tf = domain.TimeframeWeekly
	}
	points, err := h.statsService.Trends(r.Context(), actorFrom(r), tf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeframe": tf, "points": points})
}

func (h *Handlers) StatsGender(w http.ResponseWriter, r *http.Request) {
	g, err := h.statsService.Gender(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handlers) StatsTopAddresses(w http.ResponseWriter, r *http.Request) {
	top, err := h.statsService.TopAddresses(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": top})
}
