package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/services"
)

type ChatHandler struct {
	log    *logger.Logger
	survey services.SurveyService
}

// NewChatHandler accepts a nil survey service: the chat flow is then
// blocked with a visible configuration banner instead of a crash.
func NewChatHandler(log *logger.Logger, survey services.SurveyService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), survey: survey}
}

func (h *ChatHandler) notConfigured(c *gin.Context) bool {
	if h.survey != nil {
		return false
	}
	RespondError(c, http.StatusServiceUnavailable, CodeNotConfigured,
		fmt.Errorf("el asistente no está configurado (falta la credencial del modelo)"))
	return true
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	sess, err := h.survey.StartSession(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "", err)
		return
	}
	RespondOK(c, gin.H{"session_id": sess.ID.String(), "turns": sess.Turns})
}

type sendMessageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(req.SessionID))
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid session_id"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("empty message"))
		return
	}

	turn, saved, err := h.survey.HandleTurn(c.Request.Context(), sessionID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			RespondError(c, http.StatusNotFound, CodeSessionNotFound, err)
			return
		}
		// Upstream failure: the session is intact, the respondent can
		// retry by sending another turn.
		RespondError(c, http.StatusBadGateway, CodeUpstreamError, err)
		return
	}
	RespondOK(c, gin.H{"turn": turn, "saved": saved})
}

func (h *ChatHandler) History(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Query("session_id")))
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid session_id"))
		return
	}
	turns, err := h.survey.History(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			RespondError(c, http.StatusNotFound, CodeSessionNotFound, err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "", err)
		return
	}
	RespondOK(c, gin.H{"turns": turns})
}
