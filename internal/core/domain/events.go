package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventDatasetUpdated EventType = "DATASET_UPDATED"
	EventPong           EventType = "PONG"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// DatasetUpdatedPayload describes a freshly generated dataset.
type DatasetUpdatedPayload struct {
	Tickets int    `json:"tickets"`
	Seed    uint64 `json:"seed"`
	Source  string `json:"source"`
}
