// Package sqlite implements the persistence layer over a single SQLite
// file. Every write is one autocommit statement; there are no
// multi-statement transactions anywhere in the coordination workflow.
package sqlite

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup or single-row update targets a
// row that does not exist.
var ErrNotFound = errors.New("record not found")

const queryTimeout = 3 * time.Second

const timestampLayout = "2006-01-02 15:04:05"

// parseTimestamp reads the created_at column. SQLite stores it as text,
// either CURRENT_TIMESTAMP (UTC) or the explicit local stamp written by
// the check-in flow.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// likeTerm wraps a search query for LIKE matching.
func likeTerm(query string) string {
	return "%" + strings.TrimSpace(query) + "%"
}

// normalizeDateQuery rewrites a DD.MM.YYYY query into the YYYY-MM-DD form
// used by created_at, so operators can search activity logs by date.
func normalizeDateQuery(query string) string {
	parts := strings.Split(query, ".")
	if len(parts) != 3 {
		return ""
	}
	day := strings.TrimSpace(parts[0])
	month := strings.TrimSpace(parts[1])
	year := strings.TrimSpace(parts[2])
	if !isDigits(day) || !isDigits(month) || !isDigits(year) || len(year) != 4 {
		return ""
	}
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
