package domain

import (
	"strings"
	"time"
)

// Metadata carries routing and summary attributes of a realtime message.
type Metadata map[string]string

// Message is the envelope pushed to websocket views and consumed from Kafka.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Target reads a trimmed routing attribute such as sessionId or viewId.
func (m *Message) Target(key string) string {
	if m == nil || m.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(m.Metadata[key])
}

func mergeInto(target map[string]string, extras Metadata) map[string]string {
	if len(extras) == 0 {
		return target
	}
	if target == nil {
		target = map[string]string{}
	}
	for key, value := range extras {
		trimmedKey := strings.TrimSpace(key)
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedValue == "" {
			continue
		}
		target[trimmedKey] = trimmedValue
	}
	return target
}
