package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RECOMMENDATION_GENERATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields shared by every concrete event.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewRecommendationGeneratedEvent is emitted when the advisor finalizes a
// conversation and produces a drug recommendation for review.
func NewRecommendationGeneratedEvent(sessionID, cancerType string, retrievedDocs int) Event {
	return BaseEvent{
		Type: "RECOMMENDATION_GENERATED",
		Data: map[string]interface{}{
			"chat_session_id": sessionID,
			"cancer_type":     cancerType,
			"retrieved_docs":  retrievedDocs,
		},
		OccurredAt: time.Now(),
	}
}

// NewDatasetReloadedEvent is emitted after the survival dataset has been
// re-published to the indexing pipeline.
func NewDatasetReloadedEvent(csvPath string, records int) Event {
	return BaseEvent{
		Type: "DATASET_RELOADED",
		Data: map[string]interface{}{
			"csv_path": csvPath,
			"records":  records,
		},
		OccurredAt: time.Now(),
	}
}
