package implementation

import (
	"context"

	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/mapper"
	"onco-advisor-be/internal/model"
	"onco-advisor-be/internal/repository/contract"
	"onco-advisor-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RecordEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordEmbeddingMapper
}

func NewRecordEmbeddingRepository(db *gorm.DB) contract.RecordEmbeddingRepository {
	return &RecordEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordEmbeddingMapper(),
	}
}

func (r *RecordEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RecordEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.RecordEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.RecordEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.RecordEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *RecordEmbeddingRepositoryImpl) DeleteByRowIndex(ctx context.Context, rowIndex int) error {
	return r.db.WithContext(ctx).Where("row_index = ?", rowIndex).Delete(&model.RecordEmbedding{}).Error
}

func (r *RecordEmbeddingRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.RecordEmbedding{}).Error
}

func (r *RecordEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordEmbedding, error) {
	var models []*model.RecordEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.RecordEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *RecordEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.RecordEmbedding{}).Count(&count).Error
	return count, err
}

func (r *RecordEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredRecordEmbedding, error) {
	if limit <= 0 {
		limit = 3
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query) recovers the similarity
	type result struct {
		model.RecordEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("record_embeddings").
		Select("record_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredRecordEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredRecordEmbedding{
			Embedding:  r.mapper.ToEntity(&res.RecordEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
