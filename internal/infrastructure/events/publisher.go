// Package events delivers user lifecycle events to a message broker.
//
// Publishers do the actual write; the Dispatcher implements user.Notifier on
// top of a Publisher so the service never waits on, or fails because of, the
// broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"user-service/internal/domain/user"
	"user-service/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Publisher writes a single event to a broker.
type Publisher interface {
	Publish(ctx context.Context, event user.Event) error
	Close() error
}

// LogPublisher writes events to the process log. It is the default when no
// broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, event user.Event) error {
	logger.WithFields(logrus.Fields{
		"event_id":   event.EventID.String(),
		"event_type": event.EventType,
		"user_id":    event.UserID,
	}).Info("User event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, user.Event) error { return nil }
func (NopPublisher) Close() error                              { return nil }

func encode(event user.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}
	return data, nil
}
