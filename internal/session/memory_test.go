package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/construction-robotics/site-coordination/internal/session"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	data := session.Data{Email: "a@x.com", Project: "P1", SelectedProject: "P1"}
	if err := store.Set(ctx, "tok", data, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != data {
		t.Errorf("got %+v, want %+v", got, data)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	store := session.NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	if err := store.Set(ctx, "tok", session.Data{Email: "a@x.com"}, -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	if err := store.Set(ctx, "tok", session.Data{Email: "a@x.com"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
