package search

import (
	"context"
	"fmt"
	"log"

	"onco-advisor-be/internal/repository/unitofwork"
	"onco-advisor-be/pkg/embedding"
	"onco-advisor-be/pkg/store"
)

// Orchestrator turns a query string into ranked knowledge-base Documents
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Execute embeds the query and runs a cosine top-k search against the record
// index. Only rank order is kept downstream; scores are carried for logging.
func (o *Orchestrator) Execute(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	query string,
	topK int,
) ([]store.Document, error) {

	embeddingRes, err := o.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scoredResults, err := uow.RecordEmbeddingRepository().SearchSimilar(
		ctx,
		embeddingRes.Embedding.Values,
		topK,
	)
	if err != nil {
		o.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, err
	}

	o.logger.Printf("[DEBUG] Retrieved %d documents for query (topK=%d)", len(scoredResults), topK)

	documents := make([]store.Document, 0, len(scoredResults))
	for i, res := range scoredResults {
		o.logger.Printf("[DEBUG] Document %d: Similarity=%.4f Drug=%s", i+1, res.Similarity, res.Embedding.DrugName)
		documents = append(documents, store.Document{
			ID:      res.Embedding.Id.String(),
			Content: res.Embedding.Document,
			Score:   float32(res.Similarity),
			Metadata: map[string]interface{}{
				"drug_name":   res.Embedding.DrugName,
				"cancer_type": res.Embedding.CancerType,
			},
		})
	}

	return documents, nil
}
