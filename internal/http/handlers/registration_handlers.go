package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/construction-robotics/site-coordination/internal/parser"
)

const maxRequestBody = 64 << 10

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return "", false
	}
	return string(data), true
}

// SubmitRegistrationRequest accepts a raw access-request body, as copied
// from an email, and stores the parsed registration.
func (h *Handlers) SubmitRegistrationRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	message, err := h.registrations.SubmitBody(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": message})
}

// SubmitBookingRequest accepts a raw booking-request body.
func (h *Handlers) SubmitBookingRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := parser.ParseBookingRequest(body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	result, err := h.processor.HandleBookingRequest(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": result.Message})
}

func (h *Handlers) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	registrations, err := h.registrations.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"registrations": registrations})
}

func (h *Handlers) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	sendEmail := r.URL.Query().Get("send_email") == "yes"

	result, err := h.registrations.Approve(r.Context(), email, sendEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	result, err := h.registrations.Reject(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registrations.ListUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// SendCredentials mails the stored credentials to an existing user. A
// transport failure surfaces as 502; nothing is rolled back.
func (h *Handlers) SendCredentials(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := h.registrations.SendCredentials(r.Context(), email); err != nil {
		if writeNotFound(w, err) {
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to send credentials email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Credentials sent to " + email + "."})
}

func (h *Handlers) PreviewCredentials(w http.ResponseWriter, r *http.Request) {
	msg, err := h.registrations.CredentialsPreview(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
