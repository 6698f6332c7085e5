package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

const sessionHeader = "X-Session-Token"

type checkinLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) CheckinLogin(w http.ResponseWriter, r *http.Request) {
	var req checkinLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.checkin.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type presenceRequest struct {
	Project  string `json:"project"`
	Presence string `json:"presence"`
}

func (h *Handlers) CheckinPresence(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing session token")
		return
	}

	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	ticket, err := h.checkin.Presence(r.Context(), token, req.Project, domain.Presence(req.Presence))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ticket == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Check-out recorded."})
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

type serviceProviderRequest struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Mobile   string `json:"mobile"`
	Service  string `json:"service"`
	Presence string `json:"presence"`
}

func (h *Handlers) ServiceProviderPresence(w http.ResponseWriter, r *http.Request) {
	var req serviceProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	ticket, err := h.checkin.ServiceProviderPresence(r.Context(), &domain.ServiceActivity{
		Name:     req.Name,
		Company:  req.Company,
		Mobile:   req.Mobile,
		Service:  req.Service,
		Presence: domain.Presence(req.Presence),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ticket == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Check-out recorded."})
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (h *Handlers) CheckinLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing session token")
		return
	}
	if err := h.checkin.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}
