package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/survey"
)

func TestSessionOpensWithConsentTurn(t *testing.T) {
	m := NewSessionManager(newTestLogger(t), time.Hour)
	sess := m.Create()
	if len(sess.Turns) != 1 {
		t.Fatalf("turns=%d, want 1", len(sess.Turns))
	}
	if sess.Turns[0].Role != domain.RoleModel || sess.Turns[0].Text != survey.WelcomeMessage {
		t.Fatalf("first turn=%+v, want the welcome message", sess.Turns[0])
	}

	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sess {
		t.Fatal("Get returned a different session")
	}
}

func TestSessionUnknownID(t *testing.T) {
	m := NewSessionManager(newTestLogger(t), time.Hour)
	if _, err := m.Get(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err=%v, want ErrSessionNotFound", err)
	}
}

func TestIdleSessionsPruned(t *testing.T) {
	m := NewSessionManager(newTestLogger(t), time.Minute)
	stale := m.Create()
	stale.LastActive = time.Now().Add(-2 * time.Minute)

	// Pruning piggybacks on session creation; no background worker.
	fresh := m.Create()

	if _, err := m.Get(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("stale session still present: %v", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session pruned: %v", err)
	}
}
