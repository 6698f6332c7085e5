// Package parser extracts structured requests from the marker-delimited
// plain-text bodies produced by the WordPress request forms.
package parser

import (
	"fmt"
	"strings"

	"github.com/construction-robotics/site-coordination/internal/domain"
)

const (
	AccessRequestMarker  = "BEGIN_ACCESS_REQUEST_V1"
	AccessRequestEnd     = "END_ACCESS_REQUEST_V1"
	BookingRequestMarker = "BEGIN_BOOKING_REQUEST_V1"
	BookingRequestEnd    = "END_BOOKING_REQUEST_V1"

	activityBegin = "activity_begin"
	activityEnd   = "activity_end"
)

// ParseError reports a malformed or incomplete request payload. It is
// always recoverable: the sender fixes the email and resubmits.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// parseKeyValues reads newline-separated key=value lines. Blank lines and
// lines without '=' are ignored; duplicate keys keep the last value.
func parseKeyValues(lines []string) map[string]string {
	data := make(map[string]string)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return data
}

// payload returns the text strictly between the start and end markers.
func payload(body, startMarker, endMarker string) (string, error) {
	start := strings.Index(body, startMarker)
	if start < 0 {
		// callers check the start marker first; kept for safety
		return "", parseErrorf("missing marker %s", startMarker)
	}
	start += len(startMarker)
	end := strings.Index(body, endMarker)
	if end < 0 {
		return "", parseErrorf("missing end marker %s", endMarker)
	}
	if end < start {
		return "", nil
	}
	return strings.TrimSpace(body[start:end]), nil
}

func missingFields(data map[string]string, required []string) []string {
	var missing []string
	for _, key := range required {
		if data[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// ParseAccessRequest parses an access request email body.
func ParseAccessRequest(body string) (*domain.AccessRequest, error) {
	if !strings.Contains(body, AccessRequestMarker) {
		return nil, parseErrorf("Missing access request marker.")
	}

	text, err := payload(body, AccessRequestMarker, AccessRequestEnd)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")

	// The activity block is free text between stand-alone activity_begin and
	// activity_end lines. It is lifted out verbatim before key=value parsing.
	// A missing or unmatched marker leaves the payload flat.
	activityStart := -1
	activityStop := -1
	for idx, line := range lines {
		if strings.TrimSpace(line) == activityBegin {
			activityStart = idx + 1
		}
		if strings.TrimSpace(line) == activityEnd {
			activityStop = idx
			break
		}
	}

	activity := ""
	filtered := lines
	if activityStart >= 0 && activityStop >= 0 && activityStop >= activityStart {
		activity = strings.TrimSpace(strings.Join(lines[activityStart:activityStop], "\n"))
		filtered = append([]string{}, lines[:activityStart-1]...)
		filtered = append(filtered, lines[activityStop+1:]...)
	}

	data := parseKeyValues(filtered)
	required := []string{"first_name", "last_name", "email", "affiliation", "project", "phone"}
	if missing := missingFields(data, required); len(missing) > 0 {
		return nil, parseErrorf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	return &domain.AccessRequest{
		FirstName:   data["first_name"],
		LastName:    data["last_name"],
		Email:       data["email"],
		Affiliation: data["affiliation"],
		Project:     data["project"],
		Phone:       data["phone"],
		Activity:    activity,
	}, nil
}

// ParseBookingRequest parses a booking request email body.
func ParseBookingRequest(body string) (*domain.BookingRequest, error) {
	if !strings.Contains(body, BookingRequestMarker) {
		return nil, parseErrorf("Missing booking request marker.")
	}

	text, err := payload(body, BookingRequestMarker, BookingRequestEnd)
	if err != nil {
		return nil, err
	}
	data := parseKeyValues(strings.Split(text, "\n"))

	required := []string{
		"first_name",
		"last_name",
		"email",
		"project",
		"timeslot_raw",
		"duration_weeks",
		"indoor",
		"outdoor",
		"outdoor_type",
		"equipment",
	}
	if missing := missingFields(data, required); len(missing) > 0 {
		return nil, parseErrorf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	return &domain.BookingRequest{
		FirstName:     data["first_name"],
		LastName:      data["last_name"],
		Email:         data["email"],
		Project:       data["project"],
		TimeslotRaw:   data["timeslot_raw"],
		DurationWeeks: data["duration_weeks"],
		Indoor:        data["indoor"],
		Outdoor:       data["outdoor"],
		OutdoorType:   data["outdoor_type"],
		Equipment:     data["equipment"],
	}, nil
}
