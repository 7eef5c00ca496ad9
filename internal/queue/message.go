package queue

import (
	"encoding/json"
	"time"
)

// Event types published by the upload pipeline.
const (
	EventFileUploaded = "file.uploaded"
	EventBlobOrphaned = "blob.orphaned"
)

const messageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type       string `json:"type"`
	FileID     string `json:"fileId,omitempty"`
	UserID     string `json:"userId"`
	FileName   string `json:"fileName"`
	StorageKey string `json:"storageKey"`
	Reason     string `json:"reason,omitempty"`
	OccurredAt string `json:"occurredAt"`
	Version    int    `json:"version"`
}

// NewMessage stamps a message of the given type with the time and schema version.
func NewMessage(eventType string, at time.Time) Message {
	return Message{
		Type:       eventType,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
		Version:    messageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
