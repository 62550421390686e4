package contract

import (
	"context"

	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
}
