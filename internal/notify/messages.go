// Package notify renders the fixed notification emails and delivers
// them through a Mailer.
package notify

import (
	"strings"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

// Message is a fully-formed outbound email. The transport fills in the
// sender address.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func greetingName(firstName, lastName string) string {
	var parts []string
	for _, part := range []string{firstName, lastName} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	full := strings.TrimSpace(strings.Join(parts, " "))
	if full == "" {
		return "there"
	}
	return full
}

// BuildCredentialsEmail renders the credentials notification sent after
// a registration is approved or re-sent from the user list.
func BuildCredentialsEmail(recipient, password, firstName, lastName string) Message {
	body := strings.Join([]string{
		"Dear " + greetingName(firstName, lastName) + ",",
		"",
		"your registration has been approved.",
		"",
		"Below are your credentials for Check-In and Check-Out at the Reference Construction Site in Aachen.",
		"",
		"Email: " + recipient,
		"Password: " + password,
		"",
		"Please keep this information secure.",
		"",
		"How to book a timeslot:",
		"",
		"Log in to the booking page",
		"https://construction-robotics.de/en/referencesite/members-area/booking/",
		"Use the Members Area password: CARE_DFG_2026",
		"",
		"1) Enter your first name and last name",
		"2) Enter the same email address as in this message",
		"3) Enter the project you are working on",
		"4) Select your requested timeslot",
		"--> Choose the starting week",
		"--> Choose the duration in weeks",
		"",
		"Complete all required fields",
		"",
		"Submit the form",
		"Your request will be reviewed for approval",
		"",
		"Best regards,",
		"",
		"CCR Reference Construction Site Coordination Team",
	}, "\n")

	return Message{
		To:      recipient,
		Subject: "Your registration for the Reference Construction Site has been approved",
		Text:    body,
	}
}

// BuildBookingConfirmationEmail renders the confirmation sent after a
// booking is approved.
func BuildBookingConfirmationEmail(recipient string, booking *domain.Booking) Message {
	body := strings.Join([]string{
		"Dear " + greetingName(booking.FirstName, booking.LastName) + ",",
		"",
		"your booking has been successfully approved.",
		"",
		"Below are the details of your confirmed timeslot at the Reference Construction Site in Aachen.",
		"",
		"Project: " + booking.Project,
		"Timeslot: " + booking.TimeslotRaw,
		"Duration: " + booking.DurationWeeks,
		"",
		"Please arrive on site according to your booked start date.",
		"",
		"Check-In and Check-Out are mandatory.",
		"Use your personal login credentials for this purpose.",
		"",
		"If any details are incorrect or your plans change, please contact the site coordination team in advance.",
		"",
		"Entrance location:",
		"https://w3w.co/marginal.speaker.kingdom",
		"",
		"Official address:",
		"Maria-Lipp-Straße 1",
		"52074 Aachen",
		"",
		"Best regards,",
		"Reference Construction Site Coordination Team",
	}, "\n")

	return Message{
		To:      recipient,
		Subject: "Your booking at the Reference Construction Site has been confirmed",
		Text:    body,
	}
}

// BuildBookingDenialEmail renders the notification sent after a booking
// is denied.
func BuildBookingDenialEmail(recipient string, booking *domain.Booking) Message {
	body := strings.Join([]string{
		"Dear " + greetingName(booking.FirstName, booking.LastName) + ",",
		"",
		"your booking request for the Reference Construction Site in Aachen could not be approved.",
		"",
		"The requested timeslot is currently unavailable or conflicts with existing bookings or site constraints.",
		"",
		"No booking has been created for this request.",
		"",
		"You may submit a new booking request with an alternative timeslot.",
		"",
		"If you have questions regarding availability or requirements, please contact the site coordination team before submitting a new request.",
		"",
		"Best regards,",
		"Reference Construction Site Coordination Team",
	}, "\n")

	return Message{
		To:      recipient,
		Subject: "Your booking request at the Reference Construction Site was not approved",
		Text:    body,
	}
}
