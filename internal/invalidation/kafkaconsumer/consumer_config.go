package kafkaconsumer

import (
	"time"

	"github.com/mohammed-shakir/cs-wkt/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
	RetryBackoff        time.Duration
}

// FromConfig fills consumer settings from the service configuration.
func FromConfig(c config.InvalidationCfg) Config {
	return Config{
		Brokers:          c.Brokers,
		Topic:            c.Topic,
		GroupID:          c.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		// A fresh group must not replay the topic history; every event
		// bumps the generation and old ones are already reflected.
		InitialOffsetOldest: false,
		DedupeSize:          c.DedupeSize,
		RetryBackoff:        2 * time.Second,
	}
}
