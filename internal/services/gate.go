package services

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
)

var ErrWrongPassword = errors.New("contraseña incorrecta")

// GateService is the single-secret gate in front of the dashboard. A
// correct password yields a signed token the client presents on every
// dashboard call; the token carries no expiry because the gate is
// session-scoped. No lockout, no rate limiting.
type GateService interface {
	Unlock(candidate string) (string, error)
	Verify(token string) error
}

type gateService struct {
	log      *logger.Logger
	password []byte
	key      []byte
}

func NewGateService(log *logger.Logger) (GateService, error) {
	password := strings.TrimSpace(os.Getenv("DASHBOARD_PASSWORD"))
	if password == "" {
		return nil, fmt.Errorf("missing DASHBOARD_PASSWORD")
	}
	key := []byte(strings.TrimSpace(os.Getenv("GATE_SIGNING_KEY")))
	if len(key) == 0 {
		// Random per-process key: tokens only need to outlive the viewing
		// session, a restart invalidating them is fine.
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate gate signing key: %w", err)
		}
	}
	return &gateService{
		log:      log.With("service", "GateService"),
		password: []byte(password),
		key:      key,
	}, nil
}

func (g *gateService) Unlock(candidate string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(candidate), g.password) != 1 {
		g.log.Warn("Dashboard unlock rejected")
		return "", ErrWrongPassword
	}
	claims := jwt.MapClaims{
		"gate": "dashboard",
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("sign gate token: %w", err)
	}
	g.log.Info("Dashboard unlocked")
	return token, nil
}

func (g *gateService) Verify(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return g.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return fmt.Errorf("invalid gate token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["gate"] != "dashboard" {
		return fmt.Errorf("invalid gate token")
	}
	return nil
}
