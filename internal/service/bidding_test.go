package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
)

func TestAuctionRunsToAWinner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.liveAuction(t, "100", "10", 60)

	_, err := e.bidding.PlaceBid(ctx, a.ID, "alice", amount("105"))
	var tooLow *auction.BidTooLowError
	assert.True(t, errors.As(err, &tooLow))
	check.Equal(t, "110", tooLow.MinRequired.String())

	e.clock.Advance(time.Minute)
	res, err := e.bidding.PlaceBid(ctx, a.ID, "alice", amount("110"))
	assert.NoError(t, err)
	check.Equal(t, "110", res.Auction.CurrentPrice.String())

	e.clock.Advance(time.Minute)
	_, err = e.bidding.PlaceBid(ctx, a.ID, "bob", amount("120"))
	assert.NoError(t, err)

	e.clock.Advance(time.Hour)
	_, err = e.bidding.PlaceBid(ctx, a.ID, "carol", amount("500"))
	check.True(t, errors.Is(err, auction.ErrAuctionEnded))

	e.events.reset()
	n, err := e.sweeper.RunOnce(ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, n)

	ended, err := e.store.GetAuction(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, model.StatusEnded, ended.Status)
	check.Equal(t, "bob", ended.WinnerID)
	check.Equal(t, "120", ended.CurrentPrice.String())
	check.Equal(t, []model.EventType{model.EventAuctionEnded}, e.events.types())

	_, err = e.bidding.PlaceBid(ctx, a.ID, "carol", amount("500"))
	check.True(t, errors.Is(err, auction.ErrAuctionEnded))

	check.Equal(t, float64(2), testutil.ToFloat64(e.metrics.Bids.WithLabelValues(metrics.ResultAccepted)))
}

func TestPlaceBid_ConcurrentEqualBidsAcceptOne(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.liveAuction(t, "100", "10", 60)

	const bidders = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := range bidders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.bidding.PlaceBid(ctx, a.ID, "bidder-"+string(rune('a'+i)), amount("110"))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, auction.ErrBidTooLow) && !errors.Is(err, auction.ErrConcurrentBid) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	check.Equal(t, 1, accepted)
	bids, err := e.store.ListBids(ctx, a.ID, 0, 0)
	assert.NoError(t, err)
	check.Equal(t, 1, len(bids))

	got, err := e.store.GetAuction(ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, "110", got.CurrentPrice.String())
}

func TestPlaceBid_AntiSnipingExtends(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.liveAuction(t, "100", "10", 60)

	e.clock.Advance(58 * time.Minute)
	e.events.reset()
	res, err := e.bidding.PlaceBid(ctx, a.ID, "alice", amount("110"))
	assert.NoError(t, err)
	check.True(t, res.Extended)
	check.True(t, res.Auction.EndTime.Equal(e.clock.Now().Add(auction.DefaultSnipingWindow)))
	check.Equal(t, []model.EventType{model.EventBidPlaced, model.EventAuctionExtended}, e.events.types())

	// The old end time has passed but the auction is still open.
	e.clock.Advance(3 * time.Minute)
	_, err = e.bidding.PlaceBid(ctx, a.ID, "bob", amount("120"))
	assert.NoError(t, err)
}

func TestPlaceBid_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.bidding.PlaceBid(ctx, "missing", "alice", amount("10"))
	check.True(t, errors.Is(err, auction.ErrNotFound))

	a := e.liveAuction(t, "100", "10", 60)
	_, err = e.bidding.PlaceBid(ctx, a.ID, "seller", amount("200"))
	check.True(t, errors.Is(err, auction.ErrSelfBid))

	l, err := e.listing.CreateListing(ctx, "seller", listingInput("10", "1", 60))
	assert.NoError(t, err)
	_, err = e.bidding.PlaceBid(ctx, l.Auction.ID, "alice", amount("50"))
	check.True(t, errors.Is(err, auction.ErrAuctionNotLive))

	check.Equal(t, float64(3), testutil.ToFloat64(e.metrics.Bids.WithLabelValues(metrics.ResultRejected))+
		testutil.ToFloat64(e.metrics.Bids.WithLabelValues(metrics.ResultConflict)))
}

func TestBuyNow_RequiresIncrementHeadroom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := listingInput("100", "20", 60)
	price := amount("250")
	in.BuyNowPrice = &price
	l, err := e.listing.CreateListing(ctx, "seller", in)
	assert.NoError(t, err)
	_, err = e.moderation.Approve(ctx, l.Auction.ID, "admin")
	assert.NoError(t, err)

	_, err = e.bidding.PlaceBid(ctx, l.Auction.ID, "bob", amount("240"))
	assert.NoError(t, err)

	_, err = e.bidding.BuyNow(ctx, l.Auction.ID, "alice")
	check.True(t, errors.Is(err, auction.ErrBuyNowUnavailable))

	bids, err := e.listing.ListBids(ctx, l.Auction.ID, 10, 0)
	assert.NoError(t, err)
	check.Equal(t, 1, len(bids))
	check.Equal(t, "240", bids[0].Amount.String())
}

func TestBuyNow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := listingInput("100", "10", 60)
	price := amount("250")
	in.BuyNowPrice = &price
	l, err := e.listing.CreateListing(ctx, "seller", in)
	assert.NoError(t, err)
	_, err = e.moderation.Approve(ctx, l.Auction.ID, "admin")
	assert.NoError(t, err)

	e.events.reset()
	res, err := e.bidding.BuyNow(ctx, l.Auction.ID, "alice")
	assert.NoError(t, err)
	check.Equal(t, model.StatusEnded, res.Auction.Status)
	check.Equal(t, "alice", res.Auction.WinnerID)
	check.Equal(t, []model.EventType{model.EventBidPlaced, model.EventAuctionEnded}, e.events.types())

	_, err = e.bidding.PlaceBid(ctx, l.Auction.ID, "bob", amount("300"))
	check.True(t, errors.Is(err, auction.ErrAuctionEnded))

	// The sweeper has nothing left to do.
	e.clock.Advance(2 * time.Hour)
	n, err := e.sweeper.RunOnce(ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, n)
}
