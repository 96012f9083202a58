package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message exchanged between the respondent and the model.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// SurveyRecord is the canonical structured output of one completed
// conversation. Values are keyed by schema field key; booleans are
// normalized to "true"/"false" and absent fields are simply missing from
// the map (they project as empty cells). A record is immutable once built.
type SurveyRecord struct {
	SchemaVersion string
	Values        map[string]string
}

func (r *SurveyRecord) Get(key string) string {
	if r == nil || r.Values == nil {
		return ""
	}
	return r.Values[key]
}

// Session is the per-respondent conversation state. It lives only in
// process memory; abandoning a session drops it with no cleanup.
type Session struct {
	ID         uuid.UUID
	Turns      []Turn
	Completed  bool
	Saved      bool
	LastActive time.Time

	// Mu serializes turn handling for one session. Sessions are never
	// shared between respondents, so there is no cross-session locking.
	Mu sync.Mutex
}

func (s *Session) Append(role Role, text string) Turn {
	turn := Turn{Role: role, Text: text, At: time.Now().UTC()}
	s.Turns = append(s.Turns, turn)
	s.LastActive = turn.At
	return turn
}
