package feed

import (
	"encoding/json"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/session"
)

const (
	MessageSnapshot = "snapshot"
	MessageStale    = "connection_lost"
)

// Message is the envelope for everything sent to WebSocket clients.
type Message struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      *session.Snapshot `json:"data,omitempty"`
}

func encode(msgType string, snap *session.Snapshot, now time.Time) ([]byte, error) {
	b, err := json.Marshal(Message{Type: msgType, Timestamp: now, Data: snap})
	if err != nil {
		return nil, errors.New().Wrap(ErrEncodeMessage, err)
	}
	return b, nil
}
