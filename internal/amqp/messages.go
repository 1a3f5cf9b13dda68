package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/events"
)

// ChangeMessage is the wire form of a store change notification. Consumers
// that need entity contents reload the collection from the store; the message
// only says what moved.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	IDs        []string  `json:"ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage converts a store change into its wire form.
func NewChangeMessage(change events.Change) *ChangeMessage {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	return &ChangeMessage{
		Collection: change.Collection,
		Op:         string(change.Op),
		IDs:        change.IDs,
		Timestamp:  at,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
