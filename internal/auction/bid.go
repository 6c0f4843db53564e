package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/model"
)

// DefaultSnipingWindow is how close to end_time a bid must land to extend it.
const DefaultSnipingWindow = 5 * time.Minute

// AntiSnipingPolicy extends an auction when a bid arrives inside Window of its
// end. The new end is now+Window.
type AntiSnipingPolicy struct {
	Window time.Duration
}

// BidDecision is the outcome of a successful validation. The store applies it
// with a compare-and-set on PreviousPrice and PreviousEnd.
type BidDecision struct {
	PreviousPrice decimal.Decimal
	PreviousEnd   time.Time
	NewPrice      decimal.Decimal
	NewEndTime    time.Time
	Extended      bool
	EndsAuction   bool
}

// MinNextBid is the smallest amount the next bid may have.
func MinNextBid(a *model.Auction) decimal.Decimal {
	return a.CurrentPrice.Add(a.MinIncrement)
}

// checkBiddable applies the preconditions shared by bids and buy-now.
func checkBiddable(a *model.Auction, bidderID string, now time.Time) error {
	switch a.Status {
	case model.StatusLive:
	case model.StatusEnded:
		return ErrAuctionEnded
	default:
		return ErrAuctionNotLive
	}
	if a.EndTime == nil {
		return ErrAuctionNotLive
	}
	if !now.Before(*a.EndTime) {
		return ErrAuctionEnded
	}
	if bidderID == a.SellerID {
		return ErrSelfBid
	}
	return nil
}

// ValidateBid decides whether bidderID may bid amount on a at time now.
func ValidateBid(a *model.Auction, bidderID string, amount decimal.Decimal, now time.Time, policy AntiSnipingPolicy) (BidDecision, error) {
	verr := &ValidationError{}
	if bidderID == "" {
		verr.Add("bidder_id", "is required")
	}
	if !amount.IsPositive() || !validMoney(amount) {
		verr.Add("amount", "must be a positive amount with at most two decimal places")
	}
	if err := verr.OrNil(); err != nil {
		return BidDecision{}, err
	}

	if err := checkBiddable(a, bidderID, now); err != nil {
		return BidDecision{}, err
	}

	minRequired := MinNextBid(a)
	if amount.LessThan(minRequired) {
		return BidDecision{}, &BidTooLowError{Amount: amount, MinRequired: minRequired}
	}

	d := BidDecision{
		PreviousPrice: a.CurrentPrice,
		PreviousEnd:   *a.EndTime,
		NewPrice:      amount,
		NewEndTime:    *a.EndTime,
	}
	if a.AntiSniping && policy.Window > 0 && a.EndTime.Sub(now) < policy.Window {
		d.NewEndTime = now.Add(policy.Window)
		d.Extended = true
	}
	return d, nil
}

// BuyNow decides whether buyerID may end a immediately at its buy-now price.
func BuyNow(a *model.Auction, buyerID string, now time.Time) (BidDecision, error) {
	if buyerID == "" {
		return BidDecision{}, &ValidationError{Fields: []FieldError{{Field: "buyer_id", Message: "is required"}}}
	}
	if err := checkBiddable(a, buyerID, now); err != nil {
		return BidDecision{}, err
	}
	// The purchase is recorded as a bid, so it has to clear the increment too.
	if a.BuyNowPrice == nil || a.BuyNowPrice.LessThan(MinNextBid(a)) {
		return BidDecision{}, ErrBuyNowUnavailable
	}
	return BidDecision{
		PreviousPrice: a.CurrentPrice,
		PreviousEnd:   *a.EndTime,
		NewPrice:      *a.BuyNowPrice,
		NewEndTime:    now,
		EndsAuction:   true,
	}, nil
}
