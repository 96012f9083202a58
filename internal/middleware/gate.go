package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/services"
)

type GateMiddleware struct {
	log  *logger.Logger
	gate services.GateService
}

func NewGateMiddleware(log *logger.Logger, gate services.GateService) *GateMiddleware {
	return &GateMiddleware{log: log.With("Middleware", "GateMiddleware"), gate: gate}
}

// RequireGate verifies the dashboard gate token. With no gate configured
// every request is rejected; the handlers then surface the configuration
// banner on the unlock route instead.
func (gm *GateMiddleware) RequireGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if gm.gate == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "dashboard gate not configured"})
			return
		}
		token := extractGateToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing gate token"})
			return
		}
		if err := gm.gate.Verify(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func extractGateToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
