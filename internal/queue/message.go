package queue

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// KindPhotoDelete asks the worker to remove an orphaned resume photo.
	KindPhotoDelete = "photo.delete"

	MessageVersion = 1
)

// Message is the payload placed on the photo cleanup queue.
type Message struct {
	Kind       string `json:"kind"`
	URL        string `json:"url"`
	UserID     string `json:"userId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// PhotoDelete builds a cleanup job for the photo at url.
func PhotoDelete(url, userID, reason, requestID string, at time.Time) Message {
	return Message{
		Kind:       KindPhotoDelete,
		URL:        url,
		UserID:     userID,
		Reason:     reason,
		RequestID:  requestID,
		EnqueuedAt: at.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// Supported reports whether a consumer of this version can act on m.
func (m Message) Supported() bool {
	return m.Kind == KindPhotoDelete && strings.TrimSpace(m.URL) != ""
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(payload, &msg)
	return msg, err
}
