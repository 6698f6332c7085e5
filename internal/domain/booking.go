package domain

import "time"

type BookingStatus string

const (
	BookingPendingReview BookingStatus = "pending_review"
	BookingBooked        BookingStatus = "booked"
	BookingDenied        BookingStatus = "denied"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPendingReview, BookingBooked, BookingDenied:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// BookingRequest is the transient result of parsing a booking-request email.
type BookingRequest struct {
	FirstName     string
	LastName      string
	Email         string
	Project       string
	TimeslotRaw   string
	DurationWeeks string
	Indoor        string
	Outdoor       string
	OutdoorType   string
	Equipment     string
}

// Booking is a persisted timeslot request. The email references a user
// by soft reference only; a booking may exist for a never-approved user.
type Booking struct {
	ID            int64         `json:"id"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Project       string        `json:"project"`
	TimeslotRaw   string        `json:"timeslot_raw"`
	DurationWeeks string        `json:"duration_weeks"`
	Indoor        string        `json:"indoor"`
	Outdoor       string        `json:"outdoor"`
	OutdoorType   string        `json:"outdoor_type"`
	Equipment     string        `json:"equipment"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Decided reports whether an admin already approved or denied the booking.
func (b *Booking) Decided() bool {
	return b.Status == BookingBooked || b.Status == BookingDenied
}
