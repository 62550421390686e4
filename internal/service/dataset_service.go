package service

import (
	"context"
	"encoding/json"

	"onco-advisor-be/internal/dto"
	"onco-advisor-be/internal/pkg/logger"
	"onco-advisor-be/pkg/dataset"
	"onco-advisor-be/pkg/events"
	pktNats "onco-advisor-be/pkg/nats"
)

type IDatasetService interface {
	Reload(ctx context.Context) (*dto.ReloadDatasetResponse, error)
}

// datasetService reads the survival-summary table and publishes every row to
// the indexing pipeline. The consumer embeds and stores each record
// asynchronously.
type datasetService struct {
	loader           *dataset.Loader
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	csvPath          string
	logger           logger.ILogger
}

func NewDatasetService(
	loader *dataset.Loader,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	csvPath string,
	log logger.ILogger,
) IDatasetService {
	return &datasetService{
		loader:           loader,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		csvPath:          csvPath,
		logger:           log,
	}
}

func (ds *datasetService) Reload(ctx context.Context) (*dto.ReloadDatasetResponse, error) {
	records, err := ds.loader.Load()
	if err != nil {
		return nil, err
	}

	published := 0
	for i, record := range records {
		payload := dto.PublishIndexRecordMessage{
			RowIndex:   i,
			DrugName:   record.DrugName(),
			CancerType: record.CancerType(),
			Document:   record.DocumentText(),
		}
		payloadJson, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := ds.publisherService.Publish(ctx, payloadJson); err != nil {
			return nil, err
		}
		published++
	}

	// Auxiliary event, a failure here never fails the reload
	if ds.eventPublisher != nil {
		evt := events.NewDatasetReloadedEvent(ds.csvPath, published)
		if err := ds.eventPublisher.Publish(ctx, evt); err != nil {
			ds.logger.Warn("DatasetService", "Failed to publish DATASET_RELOADED event", map[string]interface{}{"error": err.Error()})
		}
	}

	ds.logger.Info("DatasetService", "Dataset reload published records for indexing", map[string]interface{}{"records": published, "csv_path": ds.csvPath})

	return &dto.ReloadDatasetResponse{RecordsPublished: published}, nil
}
