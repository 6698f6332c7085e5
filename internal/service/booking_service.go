package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/notify"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/pkg/events"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

// ErrBookingNotDecided refuses a response email for a booking that is still
// pending review.
var ErrBookingNotDecided = errors.New("booking has no decision to respond with")

type BookingService interface {
	List(ctx context.Context, query string) ([]domain.Booking, error)
	// Approve marks the booking booked. When sendResponse is set, the
	// confirmation email goes out best-effort; a failed send never rolls
	// back the decision.
	Approve(ctx context.Context, id int64, sendResponse bool) (*domain.Booking, error)
	Deny(ctx context.Context, id int64, sendResponse bool) (*domain.Booking, error)
	// SendResponse mails the email matching the booking's decision and
	// fails with ErrBookingNotDecided while the booking is pending.
	SendResponse(ctx context.Context, id int64) error
	ResponsePreview(ctx context.Context, id int64) (*notify.Message, error)
}

type bookingService struct {
	bookings  sqlite.BookingRepo
	mailer    notify.Mailer
	publisher events.Publisher
}

func NewBookingService(bookings sqlite.BookingRepo, mailer notify.Mailer, publisher events.Publisher) BookingService {
	return &bookingService{bookings: bookings, mailer: mailer, publisher: publisher}
}

func (s *bookingService) List(ctx context.Context, query string) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, query)
}

func (s *bookingService) Approve(ctx context.Context, id int64, sendResponse bool) (*domain.Booking, error) {
	return s.decide(ctx, id, domain.BookingBooked, events.BookingApproved, sendResponse)
}

func (s *bookingService) Deny(ctx context.Context, id int64, sendResponse bool) (*domain.Booking, error) {
	return s.decide(ctx, id, domain.BookingDenied, events.BookingDenied, sendResponse)
}

func (s *bookingService) decide(ctx context.Context, id int64, status domain.BookingStatus, subject string, sendResponse bool) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	booking.Status = status

	s.publish(ctx, subject, events.BookingEvent{
		BookingID:   id,
		Email:       booking.Email,
		Project:     booking.Project,
		TimeslotRaw: booking.TimeslotRaw,
		Status:      string(status),
		Timestamp:   time.Now(),
	})

	if sendResponse {
		msg := responseMessage(booking)
		if err := s.mailer.Send(msg); err != nil {
			logger.ErrorContext(ctx, "Booking response email failed", "booking_id", id, "error", err)
		}
	}
	return booking, nil
}

func (s *bookingService) SendResponse(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !booking.Decided() {
		return ErrBookingNotDecided
	}
	if err := s.mailer.Send(responseMessage(booking)); err != nil {
		return fmt.Errorf("send booking response: %w", err)
	}
	return nil
}

func (s *bookingService) ResponsePreview(ctx context.Context, id int64) (*notify.Message, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Decided() {
		return nil, ErrBookingNotDecided
	}
	msg := responseMessage(booking)
	return &msg, nil
}

func responseMessage(booking *domain.Booking) notify.Message {
	if booking.Status == domain.BookingDenied {
		return notify.BuildBookingDenialEmail(booking.Email, booking)
	}
	return notify.BuildBookingConfirmationEmail(booking.Email, booking)
}

func (s *bookingService) publish(ctx context.Context, subject string, event any) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
