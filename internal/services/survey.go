package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/extract"
	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/survey"
)

// Confirmation turns shown to the respondent after the terminal payload is
// handled. Persistence failure is terminal for the conversation too; the
// commit is never retried.
const (
	savedMessage   = "✅ ¡Datos guardados exitosamente! Gracias por participar."
	unsavedMessage = "⚠️ No pudimos confirmar que sus datos quedaran guardados, pero gracias por responder."
)

// SurveyService drives one conversation turn to completion: model call,
// terminal-payload inspection, record commit, confirmation.
type SurveyService interface {
	StartSession(ctx context.Context) (*domain.Session, error)
	// HandleTurn returns the model turn to show and whether a record was
	// committed on this turn.
	HandleTurn(ctx context.Context, sessionID uuid.UUID, text string) (domain.Turn, bool, error)
	History(sessionID uuid.UUID) ([]domain.Turn, error)
}

type surveyService struct {
	log      *logger.Logger
	sessions *SessionManager
	model    ModelClient
	store    RecordStore
	schema   *survey.Schema
}

func NewSurveyService(log *logger.Logger, sessions *SessionManager, model ModelClient, store RecordStore, sch *survey.Schema) SurveyService {
	return &surveyService{
		log:      log.With("service", "SurveyService"),
		sessions: sessions,
		model:    model,
		store:    store,
		schema:   sch,
	}
}

func (s *surveyService) StartSession(ctx context.Context) (*domain.Session, error) {
	return s.sessions.Create(), nil
}

func (s *surveyService) HandleTurn(ctx context.Context, sessionID uuid.UUID, text string) (domain.Turn, bool, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return domain.Turn{}, false, err
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()

	reply, err := s.model.Send(ctx, sess.Turns, text)
	if err != nil {
		// History untouched so the respondent can retry the same turn.
		return domain.Turn{}, false, fmt.Errorf("model call failed: %w", err)
	}
	sess.Append(domain.RoleUser, text)

	// One record per conversation. After completion the session stays
	// usable as plain chat but never extracts or commits again.
	if sess.Completed {
		return sess.Append(domain.RoleModel, reply), false, nil
	}

	block, found := extract.FindPayload(reply)
	if !found {
		return sess.Append(domain.RoleModel, reply), false, nil
	}

	payload, err := extract.Parse(block)
	if err != nil {
		var perr *extract.ParseError
		if errors.As(err, &perr) {
			s.log.Warn("Terminal payload unparseable, continuing as plain chat",
				"session_id", sessionID.String(), "raw_block", perr.Raw, "error", err.Error())
		}
		return sess.Append(domain.RoleModel, reply), false, nil
	}

	rec := extract.Record(payload, s.schema)
	sess.Completed = true

	if s.store == nil {
		s.log.Error("Record store not configured, survey record dropped", "session_id", sessionID.String())
		return sess.Append(domain.RoleModel, unsavedMessage), false, nil
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Error("Survey record commit failed", "session_id", sessionID.String(), "error", err.Error())
		return sess.Append(domain.RoleModel, unsavedMessage), false, nil
	}

	sess.Saved = true
	s.log.Info("Survey record committed", "session_id", sessionID.String(), "schema_version", rec.SchemaVersion)
	return sess.Append(domain.RoleModel, savedMessage), true, nil
}

func (s *surveyService) History(sessionID uuid.UUID) ([]domain.Turn, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	out := make([]domain.Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out, nil
}
