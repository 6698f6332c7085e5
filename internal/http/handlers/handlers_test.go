package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/construction-robotics/site-coordination/internal/database"
	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/http/handlers"
	"github.com/construction-robotics/site-coordination/internal/notify"
	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/internal/service"
	"github.com/construction-robotics/site-coordination/internal/session"
	"github.com/construction-robotics/site-coordination/pkg/auth"
	"github.com/construction-robotics/site-coordination/pkg/config"
	"github.com/construction-robotics/site-coordination/pkg/events"
)

type fakeMailer struct {
	sent []notify.Message
}

func (m *fakeMailer) Send(msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type testServer struct {
	router     http.Handler
	adminToken string
	mailer     *fakeMailer
	users      sqlite.UserRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hash, err := argon2id.CreateHash("admin-password", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminPasswordHash = hash
	cfg.Auth.AdminTokenTTL = time.Hour
	cfg.Auth.SessionTTL = time.Hour

	registrations := sqlite.NewRegistrationRepo(db)
	users := sqlite.NewUserRepo(db)
	bookings := sqlite.NewBookingRepo(db)
	activities := sqlite.NewActivityRepo(db)
	mailer := &fakeMailer{}
	publisher := events.NoopPublisher{}
	proc := processor.New(registrations, bookings, publisher)

	h := handlers.New(
		service.NewRegistrationService(registrations, users, proc, mailer, publisher),
		service.NewBookingService(bookings, mailer, publisher),
		service.NewCheckinService(users, bookings, activities, session.NewMemoryStore(), cfg.Auth.SessionTTL),
		service.NewAnalysisService(users, bookings, activities),
		activities,
		proc,
		cfg,
	)

	token, err := auth.NewAdminToken(cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	return &testServer{router: h.Routes(), adminToken: token, mailer: mailer, users: users}
}

func (ts *testServer) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if admin {
		req.Header.Set("Authorization", "Bearer "+ts.adminToken)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const accessBody = "BEGIN_ACCESS_REQUEST_V1\n" +
	"first_name=Ana\nlast_name=Lee\nemail=ana@example.org\n" +
	"affiliation=RWTH\nproject=CB-7\nphone=+49 151 000\n" +
	"END_ACCESS_REQUEST_V1\n"

const bookingBody = "BEGIN_BOOKING_REQUEST_V1\n" +
	"first_name=Ana\nlast_name=Lee\nemail=ana@example.org\nproject=CB-7\n" +
	"timeslot_raw=2024-W10; 2024-W11\nduration_weeks=2\nindoor=yes\n" +
	"outdoor=no\noutdoor_type=none\nequipment=crane\n" +
	"END_BOOKING_REQUEST_V1\n"

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/admin/login", `{"password":"admin-password"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["token"] == "" {
		t.Fatal("expected a token")
	}

	rec = ts.do(t, http.MethodPost, "/admin/login", `{"password":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/admin/registrations", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/requests/registrations", accessBody, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var created map[string]string
	decode(t, rec, &created)
	if created["message"] != "Registration stored for ana@example.org." {
		t.Fatalf("unexpected message %q", created["message"])
	}

	rec = ts.do(t, http.MethodGet, "/admin/registrations?q=ana", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var listed struct {
		Registrations []domain.Registration `json:"registrations"`
	}
	decode(t, rec, &listed)
	if len(listed.Registrations) != 1 || listed.Registrations[0].Status != domain.RegistrationOpen {
		t.Fatalf("unexpected registrations %+v", listed.Registrations)
	}

	rec = ts.do(t, http.MethodPost, "/admin/registrations/ana@example.org/approve?send_email=yes", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var approved service.ApprovalResult
	decode(t, rec, &approved)
	if approved.Status != "registered" || !approved.EmailSent {
		t.Fatalf("unexpected result %+v", approved)
	}
	if len(ts.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(ts.mailer.sent))
	}

	// A second upload for the same email is refused once the user exists.
	rec = ts.do(t, http.MethodPost, "/requests/registrations", accessBody, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("resubmit status = %d, want 409", rec.Code)
	}
}

func TestRegistrationRejectUnknown(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/admin/registrations/ghost@example.org/reject", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUnparsableRequestBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/requests/registrations", "just an email", true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["error"] != "Missing access request marker." {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestBookingLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/requests/bookings", bookingBody, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201: %s", rec.Code, rec.Body)
	}

	// Preview before a decision is refused.
	rec = ts.do(t, http.MethodGet, "/admin/bookings/1/email/preview", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("preview status = %d, want 409", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/admin/bookings/1/approve?send_response=yes", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var booking domain.Booking
	decode(t, rec, &booking)
	if booking.Status != domain.BookingBooked {
		t.Fatalf("status = %q, want booked", booking.Status)
	}
	if len(ts.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(ts.mailer.sent))
	}

	rec = ts.do(t, http.MethodGet, "/admin/bookings/1/email/preview", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want 200", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/admin/bookings/999/deny", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deny status = %d, want 404", rec.Code)
	}
}

func TestActivityTableValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/admin/activity?table=visitors", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCheckinFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	if err := ts.users.Upsert(ctx, &domain.User{
		Email: "ana@example.org", Password: "secret-password-1",
		FirstName: "Ana", LastName: "Lee", Project: "CB-7",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := ts.do(t, http.MethodPost, "/checkin/login", `{"email":"ana@example.org","password":"wrong"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/checkin/login", `{"email":"ana@example.org","password":"secret-password-1"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var login service.LoginResult
	decode(t, rec, &login)
	if login.Token == "" {
		t.Fatal("expected a session token")
	}

	req := httptest.NewRequest(http.MethodPost, "/checkin/presence",
		strings.NewReader(`{"project":"CB-7","presence":"check-in"}`))
	req.Header.Set("X-Session-Token", login.Token)
	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("presence status = %d, want 201: %s", recorder.Code, recorder.Body)
	}
	var ticket service.Ticket
	decode(t, recorder, &ticket)
	if ticket.Project != "CB-7" || ticket.Email != "ana@example.org" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}

	req = httptest.NewRequest(http.MethodPost, "/checkin/logout", nil)
	req.Header.Set("X-Session-Token", login.Token)
	recorder = httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", recorder.Code)
	}
}

func TestServiceProviderCheckin(t *testing.T) {
	ts := newTestServer(t)

	body := `{"name":"Jo Kranz","company":"KranBau","mobile":"+49 160 1","service":"crane","presence":"check-in"}`
	rec := ts.do(t, http.MethodPost, "/checkin/service-provider", body, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = ts.do(t, http.MethodPost, "/checkin/service-provider", `{"presence":"check-in"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/requests/bookings", bookingBody, true)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d status = %d: %s", i, rec.Code, rec.Body)
		}
	}

	rec := ts.do(t, http.MethodPost, "/admin/analysis", `{}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Bookings *service.BookingSummary `json:"bookings"`
	}
	decode(t, rec, &resp)
	if resp.Bookings.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Bookings.Total)
	}
	if resp.Bookings.Conflicts["2024-W10"] != 2 {
		t.Fatalf("conflicts = %v, want 2024-W10 -> 2", resp.Bookings.Conflicts)
	}
}
