package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxMsg is a message waiting to be relayed to the message queue.
type OutboxMsg struct {
	ID           uuid.UUID
	Topic        string
	Headers      map[string]string
	Payload      json.RawMessage
	PartitionKey *string
	CreatedAt    time.Time
}
