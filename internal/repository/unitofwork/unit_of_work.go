package unitofwork

import (
	"context"

	"onco-advisor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	RecordEmbeddingRepository() contract.RecordEmbeddingRepository
}
