package contract

import (
	"context"

	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/repository/specification"
)

// ScoredRecordEmbedding pairs an embedding row with its cosine similarity
type ScoredRecordEmbedding struct {
	Embedding  *entity.RecordEmbedding
	Similarity float64
}

type RecordEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.RecordEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.RecordEmbedding) error
	DeleteByRowIndex(ctx context.Context, rowIndex int) error
	DeleteAll(ctx context.Context) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilar returns the top-k rows by ascending cosine distance to
	// the query vector
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredRecordEmbedding, error)
}
