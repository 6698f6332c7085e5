// Package session provides the key-value TTL store backing check-in
// logins. Handlers receive the store as an explicit dependency; there is
// no process-global session state.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for missing or expired sessions.
var ErrNotFound = errors.New("session not found")

// Data is what a check-in login stores under its token.
type Data struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Affiliation     string `json:"affiliation"`
	Project         string `json:"project"`
	SelectedProject string `json:"selected_project"`
}

type Store interface {
	Set(ctx context.Context, token string, data Data, ttl time.Duration) error
	Get(ctx context.Context, token string) (Data, error)
	Delete(ctx context.Context, token string) error
}
