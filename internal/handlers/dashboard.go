package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/services"
)

type DashboardHandler struct {
	log       *logger.Logger
	gate      services.GateService
	dashboard services.DashboardService
}

func NewDashboardHandler(log *logger.Logger, gate services.GateService, dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		log:       log.With("handler", "DashboardHandler"),
		gate:      gate,
		dashboard: dashboard,
	}
}

type unlockRequest struct {
	Password string `json:"password"`
}

func (h *DashboardHandler) Unlock(c *gin.Context) {
	if h.gate == nil {
		RespondError(c, http.StatusServiceUnavailable, CodeNotConfigured,
			fmt.Errorf("el tablero no está configurado (falta la clave de administrador)"))
		return
	}
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	token, err := h.gate.Unlock(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrWrongPassword) {
			RespondError(c, http.StatusUnauthorized, CodeInvalidPassword, err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "", err)
		return
	}
	RespondOK(c, gin.H{"token": token})
}

func (h *DashboardHandler) notConfigured(c *gin.Context) bool {
	if h.dashboard != nil {
		return false
	}
	RespondError(c, http.StatusServiceUnavailable, CodeNotConfigured,
		fmt.Errorf("el tablero no está configurado (falta la credencial de la hoja de cálculo)"))
	return true
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	sum, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusBadGateway, CodeUpstreamError, err)
		return
	}
	RespondOK(c, sum)
}

func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="epiaki_export.csv"`)
	if err := h.dashboard.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("CSV export failed", "error", err.Error())
	}
}
