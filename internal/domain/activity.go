package domain

import "time"

type Presence string

const (
	CheckIn  Presence = "check-in"
	CheckOut Presence = "check-out"
)

func ParsePresence(s string) (Presence, bool) {
	switch Presence(s) {
	case CheckIn, CheckOut:
		return Presence(s), true
	default:
		return "", false
	}
}

// ResearchActivity is an append-only presence log row for researchers.
type ResearchActivity struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Project   string    `json:"project"`
	Presence  Presence  `json:"presence"`
	CreatedAt time.Time `json:"created_at"`
}

// ServiceActivity is an append-only presence log row for service providers.
type ServiceActivity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Mobile    string    `json:"mobile"`
	Service   string    `json:"service"`
	Presence  Presence  `json:"presence"`
	CreatedAt time.Time `json:"created_at"`
}
