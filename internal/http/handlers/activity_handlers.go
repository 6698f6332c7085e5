package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/construction-robotics/site-coordination/internal/service"
)

// SearchActivity searches one of the two presence logs, selected by the
// table query parameter.
func (h *Handlers) SearchActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	switch r.URL.Query().Get("table") {
	case "research", "":
		rows, err := h.activities.SearchResearch(r.Context(), query)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"activity": rows})
	case "service":
		rows, err := h.activities.SearchService(r.Context(), query)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"activity": rows})
	default:
		writeError(w, http.StatusBadRequest, "table must be research or service")
	}
}

type analysisRequest struct {
	Email     string `json:"email"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type analysisResponse struct {
	Emails          []string                 `json:"emails"`
	Bookings        *service.BookingSummary  `json:"bookings"`
	UserActivity    *service.ActivitySummary `json:"user_activity"`
	ServiceActivity *service.ServiceSummary  `json:"service_activity"`
}

// Analysis computes the booking and presence summaries for the given
// filter in one round trip.
func (h *Handlers) Analysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	ctx := r.Context()
	emails, err := h.analysis.Emails(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	bookings, err := h.analysis.BookingSummary(ctx, req.Email, req.StartDate, req.EndDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	userActivity, err := h.analysis.UserActivitySummary(ctx, req.Email, req.StartDate, req.EndDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	serviceActivity, err := h.analysis.ServiceActivitySummary(ctx, req.StartDate, req.EndDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		Emails:          emails,
		Bookings:        bookings,
		UserActivity:    userActivity,
		ServiceActivity: serviceActivity,
	})
}
