package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	SettingsSaved      = "events:settings:saved"
	SettingsSaveFailed = "events:settings:failed"
	ChatReply          = "events:chat:reply"
	ChatFailed         = "events:chat:failed"
)

// Notification is a transient, user-visible message (a toast).
type Notification struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func CreateNotification(eventType EventType, name, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewInfo creates an info Notification.
func NewInfo(name, message string) Notification {
	return CreateNotification(EventInfo, name, message)
}

// NewWarn creates a warn Notification.
func NewWarn(name, message string) Notification {
	return CreateNotification(EventWarn, name, message)
}

// NewError creates an error Notification.
func NewError(name, message string) Notification {
	return CreateNotification(EventError, name, message)
}

// NewSuccess creates a success Notification.
func NewSuccess(name, message string) Notification {
	return CreateNotification(EventSuccess, name, message)
}

// WithMetadata returns n with key set in its metadata.
func (n Notification) WithMetadata(key, value string) Notification {
	meta := make(map[string]string, len(n.Metadata)+1)
	for k, v := range n.Metadata {
		meta[k] = v
	}
	meta[key] = value
	n.Metadata = meta
	return n
}
