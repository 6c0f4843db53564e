package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/logging"
)

// NATSConfig configures the NATS event stream.
type NATSConfig struct {
	URL           string
	SubjectPrefix string        // events go to "{prefix}.{auction_id}"
	Stream        string        // JetStream stream name; empty publishes core NATS only
	MaxAge        time.Duration // stream retention
}

// NATSPublisher publishes every event for downstream consumers (archival,
// notifications, analytics). With a stream configured, Publish waits for the
// JetStream acknowledgement.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	prefix string
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS and ensures the stream exists.
func NewNATSPublisher(ctx context.Context, cfg NATSConfig) (*NATSPublisher, error) {
	log := logging.Component("nats")

	conn, err := nats.Connect(cfg.URL,
		nats.Name("auctionhouse-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "auction.events"
	}
	p := &NATSPublisher{conn: conn, prefix: prefix}

	if cfg.Stream != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		maxAge := cfg.MaxAge
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "Committed auction changes",
			Subjects:    []string{prefix + ".*"},
			Storage:     jetstream.FileStorage,
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      maxAge,
			Replicas:    1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create/update stream: %w", err)
		}
		p.js = js
		log.Info("stream ready", "stream", cfg.Stream, "subjects", prefix+".*")
	}
	return p, nil
}

// Subject returns the subject an auction's events are published on.
func (p *NATSPublisher) Subject(auctionID string) string {
	return p.prefix + "." + auctionID
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, ev model.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	subject := p.Subject(ev.AuctionID)

	if p.js == nil {
		if err := p.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("failed to publish to NATS: %w", err)
		}
		return nil
	}

	// Event ids double as message ids so a retried publish is deduplicated.
	if _, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(ev.ID)); err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
