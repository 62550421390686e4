package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByChatSessionID filters messages belonging to one session
type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ByRole filters messages by author role
type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// ByCancerType filters record embeddings by their cancer type column
type ByCancerType struct {
	CancerType string
}

func (s ByCancerType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("cancer_type = ?", s.CancerType)
}
