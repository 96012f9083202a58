package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes the frontend branches on.
const (
	CodeBadRequest      = "bad_request"
	CodeNotConfigured   = "not_configured"
	CodeSessionNotFound = "session_not_found"
	CodeUpstreamError   = "upstream_error"
	CodeInvalidPassword = "invalid_password"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
