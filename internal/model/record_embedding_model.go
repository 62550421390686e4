package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type RecordEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / nomic-embed-text dimensions
	DrugName       string          `gorm:"type:text;index"`
	CancerType     string          `gorm:"type:text;index"`
	RowIndex       int             `gorm:"not null;default:0"` // position in the source CSV
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (RecordEmbedding) TableName() string {
	return "record_embeddings"
}
