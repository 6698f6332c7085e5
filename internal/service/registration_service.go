package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/notify"
	"github.com/construction-robotics/site-coordination/internal/parser"
	"github.com/construction-robotics/site-coordination/internal/passwords"
	"github.com/construction-robotics/site-coordination/internal/processor"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/pkg/events"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

// ErrUserExists guards the manual registration upload: a body whose email
// already has a user account is refused.
var ErrUserExists = errors.New("a user with this email already exists")

// ApprovalResult reports the outcome of an admin decision.
type ApprovalResult struct {
	Email     string `json:"email"`
	Status    string `json:"status"`
	EmailSent bool   `json:"email_sent"`
}

type RegistrationService interface {
	// SubmitBody parses a raw access-request body and stores it, unless a
	// user already exists for the parsed email.
	SubmitBody(ctx context.Context, body string) (string, error)
	List(ctx context.Context, query string) ([]domain.Registration, error)
	// Approve creates or overwrites the user with a fresh password, marks
	// the registration registered and, when sendEmail is set, mails the
	// credentials. A failed send never rolls back the approval.
	Approve(ctx context.Context, email string, sendEmail bool) (*ApprovalResult, error)
	Reject(ctx context.Context, email string) (*ApprovalResult, error)

	ListUsers(ctx context.Context, query string) ([]domain.User, error)
	// SendCredentials re-sends a user's stored credentials and increments
	// the credentials_sent counter after a successful send.
	SendCredentials(ctx context.Context, email string) error
	CredentialsPreview(ctx context.Context, email string) (*notify.Message, error)
}

type registrationService struct {
	registrations sqlite.RegistrationRepo
	users         sqlite.UserRepo
	processor     *processor.Processor
	mailer        notify.Mailer
	publisher     events.Publisher
}

func NewRegistrationService(
	registrations sqlite.RegistrationRepo,
	users sqlite.UserRepo,
	proc *processor.Processor,
	mailer notify.Mailer,
	publisher events.Publisher,
) RegistrationService {
	return &registrationService{
		registrations: registrations,
		users:         users,
		processor:     proc,
		mailer:        mailer,
		publisher:     publisher,
	}
}

func (s *registrationService) SubmitBody(ctx context.Context, body string) (string, error) {
	req, err := parser.ParseAccessRequest(body)
	if err != nil {
		return "", err
	}
	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("check user: %w", err)
	}
	if exists {
		return "", ErrUserExists
	}
	result, err := s.processor.HandleAccessRequest(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

func (s *registrationService) List(ctx context.Context, query string) ([]domain.Registration, error) {
	return s.registrations.Search(ctx, query)
}

func (s *registrationService) Approve(ctx context.Context, email string, sendEmail bool) (*ApprovalResult, error) {
	reg, err := s.registrations.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	password, err := passwords.GenerateDefault()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	user := &domain.User{
		Email:       reg.Email,
		Password:    password,
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Affiliation: reg.Affiliation,
		Project:     reg.Project,
		Phone:       reg.Phone,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.registrations.UpdateStatus(ctx, email, domain.RegistrationRegistered); err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}

	s.publish(ctx, events.RegistrationApproved, events.RegistrationEvent{
		Email:     email,
		Project:   reg.Project,
		Status:    string(domain.RegistrationRegistered),
		Timestamp: time.Now(),
	})

	result := &ApprovalResult{Email: email, Status: string(domain.RegistrationRegistered)}
	if sendEmail {
		msg := notify.BuildCredentialsEmail(email, password, reg.FirstName, reg.LastName)
		if err := s.mailer.Send(msg); err != nil {
			// The approval is already persisted; the admin re-sends from
			// the user list if needed.
			logger.ErrorContext(ctx, "Credentials email failed", "email", email, "error", err)
		} else {
			result.EmailSent = true
			if err := s.users.IncrementCredentialsSent(ctx, email); err != nil {
				logger.ErrorContext(ctx, "Failed to count credentials send", "email", email, "error", err)
			}
		}
	}
	return result, nil
}

func (s *registrationService) Reject(ctx context.Context, email string) (*ApprovalResult, error) {
	if err := s.registrations.UpdateStatus(ctx, email, domain.RegistrationDenied); err != nil {
		return nil, err
	}

	s.publish(ctx, events.RegistrationRejected, events.RegistrationEvent{
		Email:     email,
		Status:    string(domain.RegistrationDenied),
		Timestamp: time.Now(),
	})

	return &ApprovalResult{Email: email, Status: string(domain.RegistrationDenied)}, nil
}

func (s *registrationService) ListUsers(ctx context.Context, query string) ([]domain.User, error) {
	return s.users.Search(ctx, query)
}

func (s *registrationService) SendCredentials(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	msg := notify.BuildCredentialsEmail(user.Email, user.Password, user.FirstName, user.LastName)
	if err := s.mailer.Send(msg); err != nil {
		return fmt.Errorf("send credentials email: %w", err)
	}
	return s.users.IncrementCredentialsSent(ctx, email)
}

func (s *registrationService) CredentialsPreview(ctx context.Context, email string) (*notify.Message, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	msg := notify.BuildCredentialsEmail(user.Email, user.Password, user.FirstName, user.LastName)
	return &msg, nil
}

func (s *registrationService) publish(ctx context.Context, subject string, event any) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
