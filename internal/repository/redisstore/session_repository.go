package redisstore

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"onco-advisor-be/internal/repository/contract"
	"onco-advisor-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "advisor:session:"
	sessionTTL = 1 * time.Hour
)

// SessionRepository keeps conversation state in Redis so it survives process
// restarts. Same contract as the in-memory repository; a lost Redis entry
// behaves like an expired session.
type SessionRepository struct {
	client *redis.Client
}

var _ contract.SessionStateRepository = &SessionRepository{}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Save(session *store.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("[WARN] Failed to marshal session %s: %v", session.ID, err)
		return
	}
	if err := r.client.Set(context.Background(), keyPrefix+session.ID, data, sessionTTL).Err(); err != nil {
		log.Printf("[WARN] Failed to save session %s to Redis: %v", session.ID, err)
	}
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	data, err := r.client.Get(context.Background(), keyPrefix+sessionID).Bytes()
	if err != nil {
		return nil, false
	}
	var session store.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("[WARN] Corrupt session payload for %s: %v", sessionID, err)
		return nil, false
	}
	if session.Attributes == nil {
		session.Attributes = make(map[string]string)
	}
	return &session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	if err := r.client.Del(context.Background(), keyPrefix+sessionID).Err(); err != nil {
		log.Printf("[WARN] Failed to delete session %s from Redis: %v", sessionID, err)
	}
}
