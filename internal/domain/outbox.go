package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB is a type for handle JSONB field that GORM can automatically marshal/unmarshal JSONB fields.
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSON(value, j)
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	return string(b), err
}

// OutboxEvent represents an event stored in the outbox
type OutboxEvent struct {
	ID          string     `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	Type        string     `json:"type" gorm:"type:varchar(64);not null"`
	Data        JSONB      `json:"data" gorm:"type:jsonb"`
	Status      string     `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count" gorm:"default:0"`
}

// TableName specifies the table name for OutboxEvent
func (o OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEvent builds a pending event with a fresh id
func NewOutboxEvent(eventType string, data JSONB) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Status:    EventStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// NewNotificationEvent wraps a notification so it is delivered after commit
func NewNotificationEvent(n Notification) (*OutboxEvent, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var data JSONB
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return NewOutboxEvent(EventTypeNotify, data), nil
}

// NotificationFromEvent decodes the notification carried by a NOTIFY event
func NotificationFromEvent(event *OutboxEvent) (Notification, error) {
	var n Notification
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return n, err
	}
	err = json.Unmarshal(raw, &n)
	return n, err
}

// OutboxRepository defines the interface for outbox persistence
type OutboxRepository interface {
	Save(event *OutboxEvent) error
	GetPendingEvents(limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(eventID string) error
	MarkAsFailed(eventID string, errMsg string) error
	IncrementRetryCount(eventID string) error
	WithTransaction(tx *gorm.DB) OutboxRepository
}

// OutboxProcessor defines the interface for processing outbox events
type OutboxProcessor interface {
	ProcessEvents(ctx context.Context) error
	ProcessEvent(ctx context.Context, event *OutboxEvent) error
	StartBackgroundProcessing()
	StopBackgroundProcessing()
}

// Event types
const (
	EventTypeNotify       = "NOTIFY"
	EventTypeCancelResume = "TOURNAMENT_CANCEL_RESUME"
)

// Event statuses
const (
	EventStatusPending   = "PENDING"
	EventStatusProcessed = "PROCESSED"
	EventStatusFailed    = "FAILED"
)
