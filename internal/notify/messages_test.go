package notify_test

import (
	"strings"
	"testing"

	"github.com/construction-robotics/site-coordination/internal/domain"
	"github.com/construction-robotics/site-coordination/internal/notify"
)

func TestBuildCredentialsEmail(t *testing.T) {
	msg := notify.BuildCredentialsEmail("a@x.com", "secret-pw", "Ana", "Lee")

	if msg.To != "a@x.com" {
		t.Errorf("to = %q", msg.To)
	}
	if msg.Subject != "Your registration for the Reference Construction Site has been approved" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Dear Ana Lee,", "Email: a@x.com", "Password: secret-pw"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestBuildCredentialsEmailFallbackGreeting(t *testing.T) {
	msg := notify.BuildCredentialsEmail("a@x.com", "pw", "", "")
	if !strings.Contains(msg.Text, "Dear there,") {
		t.Errorf("expected fallback greeting, got %q", msg.Text[:40])
	}
}

func TestBuildBookingConfirmationEmail(t *testing.T) {
	booking := &domain.Booking{
		FirstName:     "Ana",
		LastName:      "Lee",
		Project:       "P1",
		TimeslotRaw:   "2024-W10; Mon-Fri",
		DurationWeeks: "2",
	}
	msg := notify.BuildBookingConfirmationEmail("a@x.com", booking)

	if msg.Subject != "Your booking at the Reference Construction Site has been confirmed" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Project: P1", "Timeslot: 2024-W10; Mon-Fri", "Duration: 2"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestBuildBookingDenialEmail(t *testing.T) {
	booking := &domain.Booking{FirstName: "Ana", LastName: "Lee"}
	msg := notify.BuildBookingDenialEmail("a@x.com", booking)

	if msg.Subject != "Your booking request at the Reference Construction Site was not approved" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "could not be approved") {
		t.Error("body missing denial wording")
	}
	if !strings.Contains(msg.Text, "No booking has been created for this request.") {
		t.Error("body missing no-booking line")
	}
}
