package events

import (
	"fmt"
	"strings"
	"time"

	"user-service/internal/config"
)

// NewPublisher builds the publisher named by cfg.Events.Publisher.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch strings.ToLower(cfg.Events.Publisher) {
	case "", "log":
		return NewLogPublisher(), nil
	case "none":
		return NopPublisher{}, nil
	case "kafka":
		p, err := NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			time.Duration(cfg.Kafka.BatchTimeout)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "redis":
		return NewRedisPublisher(&cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown events publisher %q", cfg.Events.Publisher)
	}
}

// NewDispatcherFromConfig wires a publisher into a started dispatcher.
func NewDispatcherFromConfig(cfg *config.Config) (*Dispatcher, error) {
	publisher, err := NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	d := NewDispatcher(publisher, cfg.Events.BufferSize, cfg.Events.Workers, cfg.Events.PublishTimeoutDuration())
	d.Start()
	return d, nil
}
