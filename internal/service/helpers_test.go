package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/cache"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Publish(_ context.Context, ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type env struct {
	store      *repository.SQLStore
	clock      *fakeClock
	events     *recorder
	metrics    *metrics.Metrics
	roles      *RoleService
	bidding    *BiddingService
	listing    *ListingService
	moderation *ModerationService
	profiles   *ProfileService
	sweeper    *Sweeper
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { mem.Close() })

	e := &env{
		store:   store,
		clock:   &fakeClock{t: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)},
		events:  &recorder{},
		metrics: metrics.New(),
	}
	opts := Options{Publisher: e.events, Metrics: e.metrics, Clock: e.clock.Now}
	e.roles = NewRoleService(store, mem, time.Minute, opts)
	e.bidding = NewBiddingService(store, auction.DefaultSnipingWindow, opts)
	e.listing = NewListingService(store, store, ListingConfig{}, opts)
	e.moderation = NewModerationService(store, e.roles, opts)
	e.profiles = NewProfileService(store, e.roles, opts)
	e.sweeper = NewSweeper(store, SweeperConfig{BatchSize: 2}, opts)

	assert.NoError(t, e.roles.Bootstrap(context.Background(), []string{"admin"}))
	return e
}

func listingInput(base, increment string, minutes int) auction.ListingInput {
	return auction.ListingInput{
		Title:        "Film camera",
		Description:  "35mm, tested",
		Condition:    model.ConditionGood,
		BasePrice:    decimal.RequireFromString(base),
		MinIncrement: decimal.RequireFromString(increment),
		Duration:     auction.Duration{CustomMinutes: minutes},
	}
}

// liveAuction lists and approves an auction owned by "seller".
func (e *env) liveAuction(t *testing.T, base, increment string, minutes int) *model.Auction {
	t.Helper()
	ctx := context.Background()
	l, err := e.listing.CreateListing(ctx, "seller", listingInput(base, increment, minutes))
	assert.NoError(t, err)
	a, err := e.moderation.Approve(ctx, l.Auction.ID, "admin")
	assert.NoError(t, err)
	return a
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
