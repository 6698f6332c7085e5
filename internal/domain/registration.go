package domain

import "time"

type RegistrationStatus string

const (
	RegistrationOpen       RegistrationStatus = "open"
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationDenied     RegistrationStatus = "denied"
)

func ParseRegistrationStatus(s string) (RegistrationStatus, bool) {
	switch RegistrationStatus(s) {
	case RegistrationOpen, RegistrationRegistered, RegistrationDenied:
		return RegistrationStatus(s), true
	default:
		return "", false
	}
}

// AccessRequest is the transient result of parsing an access-request email.
type AccessRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Affiliation string
	Project     string
	Phone       string
	Activity    string
}

// Registration is a persisted access request awaiting an admin decision.
type Registration struct {
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Affiliation string             `json:"affiliation"`
	Project     string             `json:"project"`
	Phone       string             `json:"phone"`
	Activity    string             `json:"activity"`
	Status      RegistrationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}
