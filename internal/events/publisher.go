// Package events fans ride status changes out to an external stream. Publishing
// is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// LogPublisher writes every event to the logger. It is the default sink.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, key string, payload any) error {
	b, err := encode(payload)
	if err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{"key": key, "event": string(b)}).Info("ride event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

func encode(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}
