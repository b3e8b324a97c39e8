package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a user lifecycle event on the wire.
type EventType string

const (
	EventUserCreated EventType = "USER_CREATED"
	EventUserDeleted EventType = "USER_DELETED"
)

// Event is the message published when a user is created or deleted.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an event for u.
func NewEvent(eventType EventType, u *User) Event {
	return Event{
		EventID:   uuid.New(),
		EventType: eventType,
		UserID:    u.ID,
		UserName:  u.Name,
		UserEmail: u.Email,
		Timestamp: time.Now().UTC(),
	}
}

// Notifier announces user lifecycle events. Implementations are
// fire-and-forget: they must not block on delivery and must not report
// delivery failures back to the caller.
type Notifier interface {
	NotifyCreated(ctx context.Context, u *User)
	NotifyDeleted(ctx context.Context, u *User)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) NotifyCreated(context.Context, *User) {}
func (NopNotifier) NotifyDeleted(context.Context, *User) {}
