// Package notify fans committed auction changes out to subscribers: local
// websocket clients, other API instances over Redis, and downstream consumers
// over NATS JetStream.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"auctionhouse-api/internal/model"
)

// Publisher delivers an event about a change that has already been committed.
// A failed publish never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, model.Event) error { return nil }

func encode(ev model.Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}
