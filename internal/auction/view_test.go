package auction

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"

	"auctionhouse-api/internal/model"
)

func TestBuildView(t *testing.T) {
	a := liveAuction("120", "10", 90*time.Second)
	bids := []model.Bid{
		{ID: "1", BidderID: "A", Amount: dec("110"), CreatedAt: testNow.Add(-time.Minute)},
		{ID: "2", BidderID: "B", Amount: dec("120"), CreatedAt: testNow.Add(-time.Second)},
	}

	v := BuildView(model.Listing{Auction: a}, bids, testNow, DefaultRecentlyEndedWindow)
	check.Equal(t, "B", v.LeaderID)
	check.Equal(t, 2, v.BidCount)
	check.Equal(t, "130", v.MinNextBid.String())
	check.Equal(t, int64(90), v.SecondsRemaining)
	check.False(t, v.RecentlyEnded)
}

func TestIsRecentlyEnded(t *testing.T) {
	a := liveAuction("100", "10", -2*time.Hour)
	check.False(t, IsRecentlyEnded(a, testNow, DefaultRecentlyEndedWindow))

	a.Status = model.StatusEnded
	check.True(t, IsRecentlyEnded(a, testNow, DefaultRecentlyEndedWindow))

	a = liveAuction("100", "10", -4*time.Hour)
	a.Status = model.StatusEnded
	check.False(t, IsRecentlyEnded(a, testNow, DefaultRecentlyEndedWindow))
	check.Equal(t, time.Duration(0), TimeRemaining(a, testNow))
}
