package mapper

import (
	"time"

	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type RecordEmbeddingMapper struct{}

func NewRecordEmbeddingMapper() *RecordEmbeddingMapper {
	return &RecordEmbeddingMapper{}
}

func (m *RecordEmbeddingMapper) ToEntity(re *model.RecordEmbedding) *entity.RecordEmbedding {
	if re == nil {
		return nil
	}

	var updatedAt *time.Time
	if !re.UpdatedAt.IsZero() {
		t := re.UpdatedAt
		updatedAt = &t
	}

	return &entity.RecordEmbedding{
		Id:             re.Id,
		Document:       re.Document,
		EmbeddingValue: re.EmbeddingValue.Slice(),
		DrugName:       re.DrugName,
		CancerType:     re.CancerType,
		RowIndex:       re.RowIndex,
		CreatedAt:      re.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *RecordEmbeddingMapper) ToModel(re *entity.RecordEmbedding) *model.RecordEmbedding {
	if re == nil {
		return nil
	}

	var updatedAt time.Time
	if re.UpdatedAt != nil {
		updatedAt = *re.UpdatedAt
	}

	return &model.RecordEmbedding{
		Id:             re.Id,
		Document:       re.Document,
		EmbeddingValue: pgvector.NewVector(re.EmbeddingValue),
		DrugName:       re.DrugName,
		CancerType:     re.CancerType,
		RowIndex:       re.RowIndex,
		CreatedAt:      re.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
