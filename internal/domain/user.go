package domain

import "time"

// User is created when a registration is approved. The password is the
// generated credential mailed to the researcher and is needed verbatim
// for later re-sends, so it is stored as issued.
type User struct {
	Email           string    `json:"email"`
	Password        string    `json:"-"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Affiliation     string    `json:"affiliation"`
	Project         string    `json:"project"`
	Phone           string    `json:"phone"`
	CredentialsSent int       `json:"credentials_sent"`
	CreatedAt       time.Time `json:"created_at"`
}
