package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/construction-robotics/site-coordination/internal/parser"
)

const accessBody = "BEGIN_ACCESS_REQUEST_V1\n" +
	"first_name=Ana\n" +
	"last_name=Lee\n" +
	"email=a@x.com\n" +
	"affiliation=RWTH\n" +
	"project=P1\n" +
	"phone=123\n" +
	"END_ACCESS_REQUEST_V1"

func TestParseAccessRequest(t *testing.T) {
	req, err := parser.ParseAccessRequest(accessBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FirstName != "Ana" || req.LastName != "Lee" || req.Email != "a@x.com" {
		t.Errorf("unexpected identity fields: %+v", req)
	}
	if req.Affiliation != "RWTH" || req.Project != "P1" || req.Phone != "123" {
		t.Errorf("unexpected detail fields: %+v", req)
	}
	if req.Activity != "" {
		t.Errorf("expected empty activity, got %q", req.Activity)
	}
}

func TestParseAccessRequestActivityBlock(t *testing.T) {
	body := "noise before\nBEGIN_ACCESS_REQUEST_V1\n" +
		"first_name=Ana\n" +
		"activity_begin\n" +
		"Testing a bricklaying robot.\n" +
		"\n" +
		"Second phase: sensors.\n" +
		"activity_end\n" +
		"last_name=Lee\n" +
		"email=a@x.com\n" +
		"affiliation=RWTH\n" +
		"project=P1\n" +
		"phone=123\n" +
		"END_ACCESS_REQUEST_V1\nnoise after"

	req, err := parser.ParseAccessRequest(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Testing a bricklaying robot.\n\nSecond phase: sensors."
	if req.Activity != want {
		t.Errorf("activity = %q, want %q", req.Activity, want)
	}
	if req.FirstName != "Ana" || req.LastName != "Lee" {
		t.Errorf("surrounding fields lost: %+v", req)
	}
}

func TestParseAccessRequestUnterminatedActivityBlock(t *testing.T) {
	// Without a closing marker the payload is treated as flat key=value
	// lines and the activity stays empty.
	body := "BEGIN_ACCESS_REQUEST_V1\n" +
		"first_name=Ana\n" +
		"last_name=Lee\n" +
		"email=a@x.com\n" +
		"activity_begin\n" +
		"affiliation=RWTH\n" +
		"project=P1\n" +
		"phone=123\n" +
		"END_ACCESS_REQUEST_V1"

	req, err := parser.ParseAccessRequest(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Activity != "" {
		t.Errorf("activity = %q, want empty", req.Activity)
	}
	if req.Affiliation != "RWTH" {
		t.Errorf("affiliation lost when block is unterminated: %+v", req)
	}
}

func TestParseAccessRequestMissingMarker(t *testing.T) {
	_, err := parser.ParseAccessRequest("first_name=Ana\nlast_name=Lee")
	if err == nil {
		t.Fatal("expected error for missing marker")
	}
	var parseErr *parser.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestParseAccessRequestMissingEndMarker(t *testing.T) {
	body := strings.Replace(accessBody, "END_ACCESS_REQUEST_V1", "", 1)
	_, err := parser.ParseAccessRequest(body)
	if err == nil {
		t.Fatal("expected error for missing end marker")
	}
	var parseErr *parser.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if !strings.Contains(parseErr.Reason, "END_ACCESS_REQUEST_V1") {
		t.Errorf("error should name the missing marker: %v", err)
	}
}

func TestParseAccessRequestMissingFields(t *testing.T) {
	body := "BEGIN_ACCESS_REQUEST_V1\n" +
		"first_name=Ana\n" +
		"email=a@x.com\n" +
		"project=P1\n" +
		"END_ACCESS_REQUEST_V1"

	_, err := parser.ParseAccessRequest(body)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	want := "Missing required fields: last_name, affiliation, phone"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestParseAccessRequestEmptyValueIsMissing(t *testing.T) {
	body := strings.Replace(accessBody, "phone=123", "phone=", 1)
	_, err := parser.ParseAccessRequest(body)
	if err == nil || !strings.Contains(err.Error(), "phone") {
		t.Errorf("expected missing phone, got %v", err)
	}
}

func TestParseAccessRequestDuplicateKeysKeepLast(t *testing.T) {
	body := strings.Replace(accessBody, "project=P1", "project=P1\nproject=P2", 1)
	req, err := parser.ParseAccessRequest(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Project != "P2" {
		t.Errorf("project = %q, want P2", req.Project)
	}
}

func TestParseAccessRequestIgnoresNonKeyValueLines(t *testing.T) {
	body := strings.Replace(accessBody, "phone=123", "phone=123\nthis line has no separator", 1)
	if _, err := parser.ParseAccessRequest(body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

const bookingBody = "BEGIN_BOOKING_REQUEST_V1\n" +
	"first_name=Ana\n" +
	"last_name=Lee\n" +
	"email=a@x.com\n" +
	"project=P1\n" +
	"timeslot_raw=2024-W10; Mon-Fri\n" +
	"duration_weeks=2\n" +
	"indoor=yes\n" +
	"outdoor=no\n" +
	"outdoor_type=none\n" +
	"equipment=crane\n" +
	"END_BOOKING_REQUEST_V1"

func TestParseBookingRequest(t *testing.T) {
	req, err := parser.ParseBookingRequest(bookingBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TimeslotRaw != "2024-W10; Mon-Fri" {
		t.Errorf("timeslot_raw = %q", req.TimeslotRaw)
	}
	if req.DurationWeeks != "2" || req.Indoor != "yes" || req.Equipment != "crane" {
		t.Errorf("unexpected fields: %+v", req)
	}
}

func TestParseBookingRequestMissingMarker(t *testing.T) {
	_, err := parser.ParseBookingRequest(accessBody)
	if err == nil {
		t.Fatal("expected error for missing booking marker")
	}
}

func TestParseBookingRequestMissingFields(t *testing.T) {
	body := "BEGIN_BOOKING_REQUEST_V1\n" +
		"first_name=Ana\n" +
		"last_name=Lee\n" +
		"email=a@x.com\n" +
		"project=P1\n" +
		"END_BOOKING_REQUEST_V1"

	_, err := parser.ParseBookingRequest(body)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	want := "Missing required fields: timeslot_raw, duration_weeks, indoor, outdoor, outdoor_type, equipment"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
