package service

import (
	"context"
	"log/slog"
	"time"

	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/notify"
	"auctionhouse-api/pkg/logging"
	"auctionhouse-api/pkg/uid"
)

// Options carries the collaborators shared by every service.
type Options struct {
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Clock     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Publisher == nil {
		o.Publisher = notify.Nop{}
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// emitter publishes change notifications after a commit. Publishing failures
// are logged and counted; the committed change stands.
type emitter struct {
	pub     notify.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func newEmitter(o Options, component string) emitter {
	return emitter{pub: o.Publisher, metrics: o.Metrics, log: logging.Component(component)}
}

func (e emitter) emit(ctx context.Context, typ model.EventType, a *model.Auction, bid *model.Bid, at time.Time) {
	ev := model.Event{
		ID:         uid.NewSortable(at),
		Type:       typ,
		AuctionID:  a.ID,
		Auction:    a,
		Bid:        bid,
		OccurredAt: at,
	}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.metrics.Events.WithLabelValues(string(typ), metrics.ResultError).Inc()
		e.log.Warn("failed to publish event", "type", typ, "auction", a.ID, "error", err)
		return
	}
	e.metrics.Events.WithLabelValues(string(typ), metrics.ResultOK).Inc()
}
