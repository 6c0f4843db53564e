package auction

import (
	"time"

	"auctionhouse-api/internal/model"
)

// DefaultRecentlyEndedWindow is how long an ended auction stays in the
// "recently ended" listing. It is a display filter only.
const DefaultRecentlyEndedWindow = 3 * time.Hour

// TimeRemaining is how long a live auction has left; zero otherwise.
func TimeRemaining(a *model.Auction, now time.Time) time.Duration {
	if a.Status != model.StatusLive || a.EndTime == nil || !now.Before(*a.EndTime) {
		return 0
	}
	return a.EndTime.Sub(now)
}

// IsRecentlyEnded reports whether a ended no more than window ago.
func IsRecentlyEnded(a *model.Auction, now time.Time, window time.Duration) bool {
	if a.Status != model.StatusEnded || a.EndTime == nil {
		return false
	}
	return now.Sub(*a.EndTime) <= window
}

// BuildView derives the client read model from a listing and its bids.
func BuildView(l model.Listing, bids []model.Bid, now time.Time, window time.Duration) model.AuctionView {
	v := model.AuctionView{
		Listing:          l,
		BidCount:         len(bids),
		MinNextBid:       MinNextBid(l.Auction),
		SecondsRemaining: int64(TimeRemaining(l.Auction, now) / time.Second),
		RecentlyEnded:    IsRecentlyEnded(l.Auction, now, window),
	}
	switch {
	case l.Auction.WinnerID != "":
		v.LeaderID = l.Auction.WinnerID
	default:
		if top := SelectWinner(bids); top != nil {
			v.LeaderID = top.BidderID
		}
	}
	return v
}
