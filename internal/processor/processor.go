// Package processor turns parsed email requests into persisted records
// with their initial status.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/parser"
	"github.com/construction-robotics/site-coordination/internal/repository/sqlite"
	"github.com/construction-robotics/site-coordination/pkg/events"
	"github.com/construction-robotics/site-coordination/pkg/logger"
)

// Result carries the human-readable confirmation for a processed body.
type Result struct {
	Message string
}

type Processor struct {
	registrations sqlite.RegistrationRepo
	bookings      sqlite.BookingRepo
	publisher     events.Publisher
}

func New(registrations sqlite.RegistrationRepo, bookings sqlite.BookingRepo, publisher events.Publisher) *Processor {
	return &Processor{
		registrations: registrations,
		bookings:      bookings,
		publisher:     publisher,
	}
}

// HandleBody dispatches a raw email body on its request marker.
func (p *Processor) HandleBody(ctx context.Context, body string) (*Result, error) {
	if strings.Contains(body, parser.AccessRequestMarker) {
		req, err := parser.ParseAccessRequest(body)
		if err != nil {
			return nil, err
		}
		return p.HandleAccessRequest(ctx, req)
	}
	if strings.Contains(body, parser.BookingRequestMarker) {
		req, err := parser.ParseBookingRequest(body)
		if err != nil {
			return nil, err
		}
		return p.HandleBookingRequest(ctx, req)
	}
	return nil, &parser.ParseError{Reason: "Unsupported email format."}
}

// HandleAccessRequest stores an access request with status open.
func (p *Processor) HandleAccessRequest(ctx context.Context, req *domain.AccessRequest) (*Result, error) {
	reg := &domain.Registration{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Affiliation: req.Affiliation,
		Project:     req.Project,
		Phone:       req.Phone,
		Activity:    req.Activity,
		Status:      domain.RegistrationOpen,
	}
	if err := p.registrations.Upsert(ctx, reg); err != nil {
		return nil, fmt.Errorf("store registration: %w", err)
	}

	p.publish(ctx, events.RegistrationReceived, events.RegistrationEvent{
		Email:     reg.Email,
		Project:   reg.Project,
		Status:    string(reg.Status),
		Timestamp: time.Now(),
	})

	return &Result{Message: fmt.Sprintf("Registration stored for %s.", req.Email)}, nil
}

// HandleBookingRequest stores a booking request with status pending_review.
func (p *Processor) HandleBookingRequest(ctx context.Context, req *domain.BookingRequest) (*Result, error) {
	booking := &domain.Booking{
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Project:       req.Project,
		TimeslotRaw:   req.TimeslotRaw,
		DurationWeeks: req.DurationWeeks,
		Indoor:        req.Indoor,
		Outdoor:       req.Outdoor,
		OutdoorType:   req.OutdoorType,
		Equipment:     req.Equipment,
		Status:        domain.BookingPendingReview,
	}
	id, err := p.bookings.Insert(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	p.publish(ctx, events.BookingReceived, events.BookingEvent{
		BookingID:   id,
		Email:       booking.Email,
		Project:     booking.Project,
		TimeslotRaw: booking.TimeslotRaw,
		Status:      string(booking.Status),
		Timestamp:   time.Now(),
	})

	return &Result{Message: fmt.Sprintf("Booking stored for %s.", req.Email)}, nil
}

func (p *Processor) publish(ctx context.Context, subject string, event any) {
	if err := p.publisher.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
