package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/construction-robotics/site-coordination/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher is used when no event bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// Event subjects
const (
	RegistrationReceived = "registration.received"
	RegistrationApproved = "registration.approved"
	RegistrationRejected = "registration.rejected"
	BookingReceived      = "booking.received"
	BookingApproved      = "booking.approved"
	BookingDenied        = "booking.denied"
)

// Event payloads
type RegistrationEvent struct {
	Email     string    `json:"email"`
	Project   string    `json:"project"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type BookingEvent struct {
	BookingID   int64     `json:"booking_id,omitempty"`
	Email       string    `json:"email"`
	Project     string    `json:"project"`
	TimeslotRaw string    `json:"timeslot_raw"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}
