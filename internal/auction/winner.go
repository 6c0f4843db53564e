package auction

import "auctionhouse-api/internal/model"

// SelectWinner returns the highest bid. Equal amounts go to the earliest bid,
// and bids created in the same instant fall back to the lower (time-ordered) ID.
// It returns nil when there are no bids.
func SelectWinner(bids []model.Bid) *model.Bid {
	var best *model.Bid
	for i := range bids {
		b := &bids[i]
		if best == nil || outranks(b, best) {
			best = b
		}
	}
	if best == nil {
		return nil
	}
	winner := *best
	return &winner
}

func outranks(b, other *model.Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	if !b.CreatedAt.Equal(other.CreatedAt) {
		return b.CreatedAt.Before(other.CreatedAt)
	}
	return b.ID < other.ID
}
