package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/uid"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedLive stores a live auction owned by "seller" that ends in one hour.
func seedLive(t *testing.T, s *SQLStore, base, increment string) *model.Auction {
	t.Helper()
	in := auction.ListingInput{
		Title:        "Pocket watch",
		Description:  "Silver, keeps time",
		Condition:    model.ConditionGood,
		BasePrice:    decimal.RequireFromString(base),
		MinIncrement: decimal.RequireFromString(increment),
		Duration:     auction.Duration{CustomMinutes: 60},
	}
	item, a, err := auction.NewListing("seller", in, t0)
	assert.NoError(t, err)
	live, _, err := auction.Approve(a, t0)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateListing(context.Background(), item, live))
	return &live
}

func commit(a *model.Auction, bidder, amount string, at time.Time) BidCommit {
	d, err := auction.ValidateBid(a, bidder, decimal.RequireFromString(amount), at, auction.AntiSnipingPolicy{})
	if err != nil {
		panic(err)
	}
	return BidCommit{
		Bid: model.Bid{
			ID:        uid.NewSortable(at),
			AuctionID: a.ID,
			BidderID:  bidder,
			Amount:    d.NewPrice,
			CreatedAt: at,
		},
		Decision: d,
	}
}

func TestSQLStore_Listing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "99.95", "0.05")

	l, err := s.GetListing(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, "Pocket watch", l.Item.Title)
	check.Equal(t, model.StatusLive, l.Auction.Status)
	check.True(t, l.Auction.CurrentPrice.Equal(decimal.RequireFromString("99.95")))
	check.True(t, l.Auction.MinIncrement.Equal(decimal.RequireFromString("0.05")))
	check.True(t, l.Auction.EndTime.Equal(t0.Add(time.Hour)))
	check.True(t, l.Auction.AntiSniping)
	check.Nil(t, l.Auction.BuyNowPrice)
	check.Equal(t, 0, len(l.Item.Images))

	_, err = s.GetListing(ctx, "missing")
	check.True(t, errors.Is(err, auction.ErrNotFound))
	_, err = s.GetAuction(ctx, "missing")
	check.True(t, errors.Is(err, auction.ErrNotFound))
}

func TestSQLStore_UpdateItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "10", "1")

	l, err := s.GetListing(ctx, a.ID)
	assert.NoError(t, err)
	item := *l.Item
	item.Title = "Gold pocket watch"
	item.UpdatedAt = t0.Add(time.Minute)
	assert.NoError(t, s.UpdateItem(ctx, item))

	l, err = s.GetListing(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, "Gold pocket watch", l.Item.Title)

	foreign := item
	foreign.SellerID = "someone-else"
	err = s.UpdateItem(ctx, foreign)
	check.True(t, errors.Is(err, auction.ErrNotFound))

	missing := item
	missing.ID = "missing"
	err = s.UpdateItem(ctx, missing)
	check.True(t, errors.Is(err, auction.ErrNotFound))
}

func TestSQLStore_ApplyBid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "100", "10")

	updated, err := s.ApplyBid(ctx, commit(a, "alice", "110", t0.Add(time.Minute)))
	assert.NoError(t, err)
	check.True(t, updated.CurrentPrice.Equal(decimal.NewFromInt(110)))

	// A decision made against the stale price loses the compare-and-set.
	_, err = s.ApplyBid(ctx, commit(a, "bob", "120", t0.Add(2*time.Minute)))
	check.True(t, errors.Is(err, auction.ErrConcurrentBid))

	_, err = s.ApplyBid(ctx, commit(updated, "bob", "120", t0.Add(2*time.Minute)))
	assert.NoError(t, err)

	bids, err := s.ListBids(ctx, a.ID, 0, 0)
	assert.NoError(t, err)
	check.Equal(t, 2, len(bids))
	check.Equal(t, "bob", bids[0].BidderID)
	check.True(t, bids[0].Amount.Equal(decimal.NewFromInt(120)))

	n, err := s.CountBids(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, 2, n)

	history, err := s.ListBidsByBidder(ctx, "alice", 10, 0)
	assert.NoError(t, err)
	check.Equal(t, 1, len(history))
}

func TestSQLStore_ApplyBidAfterEndIsRejected(t *testing.T) {
	s := newTestStore(t)
	a := seedLive(t, s, "100", "10")

	c := commit(a, "alice", "110", t0.Add(time.Minute))
	c.Bid.CreatedAt = t0.Add(2 * time.Hour)
	_, err := s.ApplyBid(context.Background(), c)
	check.True(t, errors.Is(err, auction.ErrConcurrentBid))

	bids, err := s.ListBids(context.Background(), a.ID, 0, 0)
	assert.NoError(t, err)
	check.Equal(t, 0, len(bids))
}

func TestSQLStore_BuyNowEndsAuction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "100", "10")
	price := decimal.NewFromInt(300)
	a.BuyNowPrice = &price

	at := t0.Add(time.Minute)
	d, err := auction.BuyNow(a, "carol", at)
	assert.NoError(t, err)
	updated, err := s.ApplyBid(ctx, BidCommit{
		Bid:      model.Bid{ID: uid.NewSortable(at), AuctionID: a.ID, BidderID: "carol", Amount: d.NewPrice, CreatedAt: at},
		Decision: d,
	})
	assert.NoError(t, err)
	check.Equal(t, model.StatusEnded, updated.Status)
	check.Equal(t, "carol", updated.WinnerID)
}

func TestSQLStore_FinalizeOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "100", "10")

	_, err := s.ApplyBid(ctx, commit(a, "alice", "110", t0.Add(time.Minute)))
	assert.NoError(t, err)

	_, done, err := s.Finalize(ctx, a.ID, t0.Add(30*time.Minute))
	assert.NoError(t, err)
	check.False(t, done)

	end := t0.Add(time.Hour)
	ids, err := s.ListExpired(ctx, end, 10)
	assert.NoError(t, err)
	check.Equal(t, []string{a.ID}, ids)

	ended, done, err := s.Finalize(ctx, a.ID, end)
	assert.NoError(t, err)
	check.True(t, done)
	check.Equal(t, model.StatusEnded, ended.Status)
	check.Equal(t, "alice", ended.WinnerID)

	_, done, err = s.Finalize(ctx, a.ID, end.Add(time.Minute))
	assert.NoError(t, err)
	check.False(t, done)

	ids, err = s.ListExpired(ctx, end, 10)
	assert.NoError(t, err)
	check.Equal(t, 0, len(ids))
}

func TestSQLStore_UpdateStatusIf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, a, err := auction.NewListing("seller", auction.ListingInput{
		Title: "Lamp", Description: "Brass", Condition: model.ConditionFair,
		BasePrice: decimal.NewFromInt(5), MinIncrement: decimal.NewFromInt(1),
		Duration: auction.Duration{Days: 1},
	}, t0)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateListing(ctx, item, a))

	cancelled, _, err := auction.Reject(a, t0)
	assert.NoError(t, err)
	changed, err := s.UpdateStatusIf(ctx, model.StatusPending, cancelled)
	assert.NoError(t, err)
	check.True(t, changed)

	live, _, err := auction.Approve(a, t0)
	assert.NoError(t, err)
	changed, err = s.UpdateStatusIf(ctx, model.StatusPending, live)
	assert.NoError(t, err)
	check.False(t, changed)

	got, err := s.GetAuction(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, model.StatusCancelled, got.Status)
}

func TestSQLStore_ListListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	live := seedLive(t, s, "100", "10")

	item, pending, err := auction.NewListing("other", auction.ListingInput{
		Title: "Chair", Description: "Oak", Condition: model.ConditionNew,
		BasePrice: decimal.NewFromInt(20), MinIncrement: decimal.NewFromInt(2),
		Duration: auction.Duration{Days: 3},
	}, t0)
	assert.NoError(t, err)
	assert.NoError(t, s.CreateListing(ctx, item, pending))

	got, err := s.ListListings(ctx, model.AuctionFilter{Statuses: []model.Status{model.StatusLive}})
	assert.NoError(t, err)
	check.Equal(t, 1, len(got))
	check.Equal(t, live.ID, got[0].Auction.ID)

	got, err = s.ListListings(ctx, model.AuctionFilter{SellerID: "other"})
	assert.NoError(t, err)
	check.Equal(t, 1, len(got))
	check.Equal(t, model.StatusPending, got[0].Auction.Status)

	got, err = s.ListListings(ctx, model.AuctionFilter{})
	assert.NoError(t, err)
	check.Equal(t, 2, len(got))

	stats, err := s.Stats(ctx)
	assert.NoError(t, err)
	check.Equal(t, int64(2), stats.TotalItems)
	check.Equal(t, int64(1), stats.AuctionsByStatus[model.StatusPending])
}

func TestSQLStore_RolesAndProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.HasRole(ctx, "u1", model.RoleAdmin)
	assert.NoError(t, err)
	check.False(t, ok)

	ra := model.RoleAssignment{UserID: "u1", Role: model.RoleAdmin, GrantedBy: "root", CreatedAt: t0}
	assert.NoError(t, s.GrantRole(ctx, ra))
	assert.NoError(t, s.GrantRole(ctx, ra))

	ok, err = s.HasRole(ctx, "u1", model.RoleAdmin)
	assert.NoError(t, err)
	check.True(t, ok)

	roles, err := s.ListRoles(ctx, "u1")
	assert.NoError(t, err)
	check.Equal(t, []model.Role{model.RoleAdmin}, roles)

	assert.NoError(t, s.RevokeRole(ctx, "u1", model.RoleAdmin))
	ok, err = s.HasRole(ctx, "u1", model.RoleAdmin)
	assert.NoError(t, err)
	check.False(t, ok)

	p := model.Profile{ID: "u1", Username: "ada", CreatedAt: t0, UpdatedAt: t0}
	assert.NoError(t, s.UpsertProfile(ctx, p))
	p.Username = "ada_l"
	p.Bio = "collector"
	assert.NoError(t, s.UpsertProfile(ctx, p))

	got, err := s.GetProfile(ctx, "u1")
	assert.NoError(t, err)
	check.Equal(t, "ada_l", got.Username)
	check.Equal(t, "collector", got.Bio)

	_, err = s.GetProfile(ctx, "nobody")
	check.True(t, errors.Is(err, auction.ErrNotFound))
}

func TestSQLStore_Watchlist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLive(t, s, "100", "10")

	e := model.WatchlistEntry{UserID: "u1", AuctionID: a.ID, CreatedAt: t0}
	assert.NoError(t, s.AddWatch(ctx, e))
	assert.NoError(t, s.AddWatch(ctx, e))

	watched, err := s.ListWatched(ctx, "u1")
	assert.NoError(t, err)
	check.Equal(t, 1, len(watched))

	ok, err := s.IsWatching(ctx, "u1", a.ID)
	assert.NoError(t, err)
	check.True(t, ok)

	assert.NoError(t, s.RemoveWatch(ctx, "u1", a.ID))
	assert.NoError(t, s.RemoveWatch(ctx, "u1", a.ID))
	ok, err = s.IsWatching(ctx, "u1", a.ID)
	assert.NoError(t, err)
	check.False(t, ok)
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM bids WHERE auction_id = ? AND amount > ? LIMIT ?"
	check.Equal(t, q, sqliteDialect.rebind(q))
	check.Equal(t, "SELECT * FROM bids WHERE auction_id = $1 AND amount > $2 LIMIT $3", postgresDialect.rebind(q))

	check.Equal(t, "INSERT IGNORE INTO watchlist (a, b) VALUES (?, ?)", mysqlDialect.insertIgnore("watchlist", "a, b", 2))
	check.Equal(t, "INSERT INTO watchlist (a, b) VALUES (?, ?) ON CONFLICT DO NOTHING", postgresDialect.insertIgnore("watchlist", "a, b", 2))
}

func TestCents(t *testing.T) {
	check.Equal(t, int64(10995), toCents(decimal.RequireFromString("109.95")))
	check.True(t, fromCents(10995).Equal(decimal.RequireFromString("109.95")))
	check.Equal(t, int64(0), toCents(decimal.Zero))
}
