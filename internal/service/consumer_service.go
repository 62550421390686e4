package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onco-advisor-be/internal/dto"
	"onco-advisor-be/internal/entity"
	"onco-advisor-be/internal/pkg/logger"
	"onco-advisor-be/internal/repository/unitofwork"
	"onco-advisor-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService indexes knowledge-base records published on the event bus.
// Each message carries one flattened study record; the consumer embeds it and
// replaces any previous vector for the same row.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexRecordMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal index message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.logger.Info("ConsumerService", fmt.Sprintf("Indexing record row %d (drug: %s)", payload.RowIndex, payload.DrugName), nil)

	res, err := cs.embeddingProvider.Generate(payload.Document, embedding.TaskRetrievalDocument)
	if err != nil {
		cs.logger.Error("ConsumerService", fmt.Sprintf("Failed to generate embedding for row %d", payload.RowIndex), map[string]interface{}{"error": err.Error()})
		msg.Nack() // Nack for retriable errors
		return
	}

	record := &entity.RecordEmbedding{
		Id:             uuid.New(),
		Document:       payload.Document,
		EmbeddingValue: res.Embedding.Values,
		DrugName:       payload.DrugName,
		CancerType:     payload.CancerType,
		RowIndex:       payload.RowIndex,
		CreatedAt:      time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("ConsumerService", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Re-publishing the dataset must not leave stale vectors behind
	if err := uow.RecordEmbeddingRepository().DeleteByRowIndex(ctx, payload.RowIndex); err != nil {
		cs.logger.Error("ConsumerService", fmt.Sprintf("Failed to delete old embedding for row %d", payload.RowIndex), map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.RecordEmbeddingRepository().Create(ctx, record); err != nil {
		cs.logger.Error("ConsumerService", fmt.Sprintf("Failed to store embedding for row %d", payload.RowIndex), map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("ConsumerService", "Failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", fmt.Sprintf("Record indexed: row %d (drug: %s)", payload.RowIndex, payload.DrugName), nil)
	msg.Ack()
}
