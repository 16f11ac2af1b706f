package events

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionManager produces the session identifier stamped onto every event.
//
// Identifiers are 32 lowercase hexadecimal characters derived from a random
// 128-bit token. They live in RAM only and are never persisted, so every
// process start begins a new session. Rotation uses a fixed window: an
// identifier is valid for the configured timeout measured from its creation,
// and the first SessionID call after the window elapses generates a
// replacement. Rotation is lazy and synchronous; there is no background timer.
//
// A SessionManager is safe for concurrent use. Each instance is independent of
// every other instance.
type SessionManager struct {
	lock         sync.Mutex
	sessionID    string
	sessionStart time.Time
	timeout      time.Duration
	timeFn       func() time.Time
}

// NewSessionManager creates a SessionManager with the given rotation timeout.
// If timeout is zero, DefaultSessionTimeout is used. The first session
// identifier is generated immediately.
func NewSessionManager(timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	s := &SessionManager{
		timeout: timeout,
		timeFn:  time.Now,
	}
	s.sessionID = newSessionToken()
	s.sessionStart = s.timeFn()
	return s
}

// SessionID returns the current session identifier, rotating it first if the
// session window has elapsed. It never fails and performs no I/O.
func (s *SessionManager) SessionID() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.timeFn()
	if now.Sub(s.sessionStart) > s.timeout {
		s.sessionID = newSessionToken()
		s.sessionStart = now
	}
	return s.sessionID
}

// newSessionToken returns a random 128-bit token as 32 lowercase hex
// characters: a version-4 UUID with the dashes stripped.
func newSessionToken() string {
	// If the system entropy source somehow fails, NewRandom returns the zero
	// UUID, which still formats as 32 hex characters. Collisions here affect
	// only event attribution, not security.
	u, _ := uuid.NewRandom()
	return strings.ReplaceAll(strings.ToLower(u.String()), "-", "")
}
