package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/construction-robotics/site-coordination/internal/parser"
	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/internal/service"
	"github.com/construction-robotics/site-coordination/pkg/auth"
	"github.com/construction-robotics/site-coordination/pkg/config"
)

type Handlers struct {
	registrations service.RegistrationService
	bookings      service.BookingService
	checkin       service.CheckinService
	analysis      service.AnalysisService
	activities    sqlite.ActivityRepo
	processor     *processor.Processor
	config        *config.Config
}

func New(
	registrations service.RegistrationService,
	bookings service.BookingService,
	checkin service.CheckinService,
	analysis service.AnalysisService,
	activities sqlite.ActivityRepo,
	proc *processor.Processor,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		registrations: registrations,
		bookings:      bookings,
		checkin:       checkin,
		analysis:      analysis,
		activities:    activities,
		processor:     proc,
		config:        cfg,
	}
}

// Routes wires every endpoint onto a fresh chi router. The server mounts
// this under the shared middleware stack.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/admin/login", h.AdminLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)

		r.Post("/requests/registrations", h.SubmitRegistrationRequest)
		r.Post("/requests/bookings", h.SubmitBookingRequest)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/registrations", h.ListRegistrations)
			r.Post("/registrations/{email}/approve", h.ApproveRegistration)
			r.Post("/registrations/{email}/reject", h.RejectRegistration)

			r.Get("/users", h.ListUsers)
			r.Post("/users/{email}/credentials", h.SendCredentials)
			r.Get("/users/{email}/credentials/preview", h.PreviewCredentials)

			r.Get("/bookings", h.ListBookings)
			r.Post("/bookings/{id}/approve", h.ApproveBooking)
			r.Post("/bookings/{id}/deny", h.DenyBooking)
			r.Get("/bookings/{id}/email/preview", h.PreviewBookingEmail)

			r.Get("/activity", h.SearchActivity)
			r.Post("/analysis", h.Analysis)
		})
	})

	r.Route("/checkin", func(r chi.Router) {
		r.Post("/login", h.CheckinLogin)
		r.Post("/presence", h.CheckinPresence)
		r.Post("/service-provider", h.ServiceProviderPresence)
		r.Post("/logout", h.CheckinLogout)
	})

	return r
}

// RequireAdmin authenticates the admin JWT issued by AdminLogin.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.Role != "admin" {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeNotFound(w http.ResponseWriter, err error) bool {
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return true
	}
	return false
}

// writeServiceError maps the known sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var parseErr *parser.ParseError
	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusUnprocessableEntity, parseErr.Reason)
	case errors.Is(err, sqlite.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBookingNotDecided):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidPresence),
		errors.Is(err, service.ErrProjectRequired),
		errors.Is(err, service.ErrNameRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
