package contract

import "onco-advisor-be/pkg/store"

// SessionStateRepository keeps the live conversation state between turns.
// Backed by an in-process cache by default, optionally by Redis.
type SessionStateRepository interface {
	Save(session *store.Session)
	Get(sessionID string) (*store.Session, bool)
	Delete(sessionID string)
}
