package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/survey"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager holds every in-flight conversation in process memory.
// Nothing here survives a restart; an abandoned session is simply pruned
// after sitting idle.
type SessionManager struct {
	log     *logger.Logger
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func NewSessionManager(log *logger.Logger, idleTTL time.Duration) *SessionManager {
	return &SessionManager{
		log:      log.With("service", "SessionManager"),
		idleTTL:  idleTTL,
		sessions: make(map[uuid.UUID]*domain.Session),
	}
}

// Create opens a session seeded with the consent welcome turn.
func (m *SessionManager) Create() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(time.Now())

	sess := &domain.Session{ID: uuid.New(), LastActive: time.Now().UTC()}
	sess.Append(domain.RoleModel, survey.WelcomeMessage)
	m.sessions[sess.ID] = sess
	m.log.Debug("Session created", "session_id", sess.ID.String())
	return sess
}

func (m *SessionManager) Get(id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *SessionManager) pruneLocked(now time.Time) {
	if m.idleTTL <= 0 {
		return
	}
	for id, sess := range m.sessions {
		if now.Sub(sess.LastActive) > m.idleTTL {
			delete(m.sessions, id)
		}
	}
}
