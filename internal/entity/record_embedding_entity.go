package entity

import (
	"time"

	"github.com/google/uuid"
)

// RecordEmbedding is one indexed knowledge-base document with its vector
type RecordEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	DrugName       string
	CancerType     string
	RowIndex       int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
