package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/internal/session"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidPresence    = errors.New("presence must be check-in or check-out")
	ErrProjectRequired    = errors.New("a project selection is required")
	ErrNameRequired       = errors.New("a name is required")
)

// LoginResult carries the session token plus everything the check-in UI
// needs to render the presence form.
type LoginResult struct {
	Token     string   `json:"token"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Projects  []string `json:"projects"`
}

// Ticket is the printable receipt for a completed check-in. Check-outs
// produce no ticket.
type Ticket struct {
	Kind      string    `json:"kind"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Project   string    `json:"project,omitempty"`
	Name      string    `json:"name,omitempty"`
	Company   string    `json:"company,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
	Service   string    `json:"service,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CheckinService interface {
	// Login verifies the stored credentials and opens a session. The
	// project list comes from the user's bookings, falling back to the
	// account's registration project.
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Presence records a check-in or check-out for the session holder.
	// The selected project is remembered on the session for the next
	// submission.
	Presence(ctx context.Context, token, project string, presence domain.Presence) (*Ticket, error)
	// ServiceProviderPresence records presence for an external service
	// provider without a session.
	ServiceProviderPresence(ctx context.Context, activity *domain.ServiceActivity) (*Ticket, error)
	Logout(ctx context.Context, token string) error
}

type checkinService struct {
	users      sqlite.UserRepo
	bookings   sqlite.BookingRepo
	activities sqlite.ActivityRepo
	sessions   session.Store
	sessionTTL time.Duration
}

func NewCheckinService(
	users sqlite.UserRepo,
	bookings sqlite.BookingRepo,
	activities sqlite.ActivityRepo,
	sessions session.Store,
	sessionTTL time.Duration,
) CheckinService {
	return &checkinService{
		users:      users,
		bookings:   bookings,
		activities: activities,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

func (s *checkinService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	projects, err := s.bookings.ProjectsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 && user.Project != "" {
		projects = []string{user.Project}
	}

	token := uuid.NewString()
	data := session.Data{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Affiliation: user.Affiliation,
		Project:     user.Project,
	}
	if err := s.sessions.Set(ctx, token, data, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	logger.InfoContext(ctx, "Check-in login", "email", user.Email)
	return &LoginResult{
		Token:     token,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Projects:  projects,
	}, nil
}

func (s *checkinService) Presence(ctx context.Context, token, project string, presence domain.Presence) (*Ticket, error) {
	data, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if _, ok := domain.ParsePresence(string(presence)); !ok {
		return nil, ErrInvalidPresence
	}
	if project == "" {
		project = data.SelectedProject
	}
	if project == "" {
		project = data.Project
	}
	if project == "" {
		return nil, ErrProjectRequired
	}

	activity := &domain.ResearchActivity{
		Email:     data.Email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Project:   project,
		Presence:  presence,
	}
	createdAt, err := s.activities.InsertResearch(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("record presence: %w", err)
	}

	data.SelectedProject = project
	if err := s.sessions.Set(ctx, token, data, s.sessionTTL); err != nil {
		logger.WarnContext(ctx, "Failed to refresh session", "error", err)
	}

	if presence != domain.CheckIn {
		return nil, nil
	}
	return &Ticket{
		Kind:      "research",
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     data.Email,
		Project:   project,
		CreatedAt: createdAt,
	}, nil
}

func (s *checkinService) ServiceProviderPresence(ctx context.Context, activity *domain.ServiceActivity) (*Ticket, error) {
	if _, ok := domain.ParsePresence(string(activity.Presence)); !ok {
		return nil, ErrInvalidPresence
	}
	if activity.Name == "" {
		return nil, ErrNameRequired
	}
	createdAt, err := s.activities.InsertService(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("record presence: %w", err)
	}
	if activity.Presence != domain.CheckIn {
		return nil, nil
	}
	return &Ticket{
		Kind:      "service_provider",
		Name:      activity.Name,
		Company:   activity.Company,
		Mobile:    activity.Mobile,
		Service:   activity.Service,
		CreatedAt: createdAt,
	}, nil
}

func (s *checkinService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}
