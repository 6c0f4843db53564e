package auction

import (
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"auctionhouse-api/internal/model"
)

var noSniping = AntiSnipingPolicy{}

func TestValidateBid_RequiresIncrement(t *testing.T) {
	a := liveAuction("100", "10", time.Hour)

	_, err := ValidateBid(a, "alice", dec("105"), testNow, noSniping)
	check.True(t, errors.Is(err, ErrBidTooLow))

	var tooLow *BidTooLowError
	assert.True(t, errors.As(err, &tooLow))
	check.Equal(t, "110.00", tooLow.MinRequired.StringFixed(2))

	d, err := ValidateBid(a, "alice", dec("110"), testNow, noSniping)
	assert.NoError(t, err)
	check.Equal(t, "110", d.NewPrice.String())
	check.Equal(t, "100", d.PreviousPrice.String())
	check.False(t, d.Extended)
	check.True(t, d.NewEndTime.Equal(*a.EndTime))
}

func TestValidateBid_RejectsTerminalAndInactiveAuctions(t *testing.T) {
	cases := []struct {
		name   string
		status model.Status
		want   error
	}{
		{"ended", model.StatusEnded, ErrAuctionEnded},
		{"cancelled", model.StatusCancelled, ErrAuctionNotLive},
		{"pending", model.StatusPending, ErrAuctionNotLive},
		{"draft", model.StatusDraft, ErrAuctionNotLive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := liveAuction("100", "10", time.Hour)
			a.Status = tc.status
			_, err := ValidateBid(a, "alice", dec("1000"), testNow, noSniping)
			check.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestValidateBid_PastEndTimeIsEnded(t *testing.T) {
	a := liveAuction("100", "10", 0)
	_, err := ValidateBid(a, "alice", dec("500"), testNow, noSniping)
	check.True(t, errors.Is(err, ErrAuctionEnded))
}

func TestValidateBid_SellerCannotBid(t *testing.T) {
	a := liveAuction("100", "10", time.Hour)
	_, err := ValidateBid(a, "seller", dec("200"), testNow, noSniping)
	check.True(t, errors.Is(err, ErrSelfBid))
	check.Equal(t, KindAuthorization, KindOf(err))
}

func TestValidateBid_MalformedAmount(t *testing.T) {
	a := liveAuction("100", "10", time.Hour)
	for _, amount := range []string{"0", "-5", "110.001", "1000000000001"} {
		_, err := ValidateBid(a, "alice", dec(amount), testNow, noSniping)
		var verr *ValidationError
		check.True(t, errors.As(err, &verr))
	}
}

func TestValidateBid_AntiSnipingExtendsEndTime(t *testing.T) {
	policy := AntiSnipingPolicy{Window: 5 * time.Minute}

	a := liveAuction("100", "10", 2*time.Minute)
	d, err := ValidateBid(a, "alice", dec("110"), testNow, policy)
	assert.NoError(t, err)
	check.True(t, d.Extended)
	check.True(t, d.NewEndTime.Equal(testNow.Add(5*time.Minute)))

	a = liveAuction("100", "10", 10*time.Minute)
	d, err = ValidateBid(a, "alice", dec("110"), testNow, policy)
	assert.NoError(t, err)
	check.False(t, d.Extended)

	a = liveAuction("100", "10", 2*time.Minute)
	a.AntiSniping = false
	d, err = ValidateBid(a, "alice", dec("110"), testNow, policy)
	assert.NoError(t, err)
	check.False(t, d.Extended)
	check.True(t, d.NewEndTime.Equal(*a.EndTime))
}

func TestBuyNow(t *testing.T) {
	a := liveAuction("100", "10", time.Hour)
	_, err := BuyNow(a, "alice", testNow)
	check.True(t, errors.Is(err, ErrBuyNowUnavailable))

	price := dec("500")
	a.BuyNowPrice = &price
	d, err := BuyNow(a, "alice", testNow)
	assert.NoError(t, err)
	check.True(t, d.EndsAuction)
	check.Equal(t, "500", d.NewPrice.String())
	check.True(t, d.NewEndTime.Equal(testNow))

	a.CurrentPrice = dec("500")
	_, err = BuyNow(a, "alice", testNow)
	check.True(t, errors.Is(err, ErrBuyNowUnavailable))

	// Bidding has come within one increment of the buy-now price.
	a.CurrentPrice = dec("495")
	_, err = BuyNow(a, "alice", testNow)
	check.True(t, errors.Is(err, ErrBuyNowUnavailable))

	a.CurrentPrice = dec("490")
	d, err = BuyNow(a, "alice", testNow)
	assert.NoError(t, err)
	check.Equal(t, "500", d.NewPrice.String())
}

func TestKindOf(t *testing.T) {
	check.Equal(t, KindValidation, KindOf(&ValidationError{Fields: []FieldError{{Field: "x", Message: "y"}}}))
	check.Equal(t, KindValidation, KindOf(&BidTooLowError{}))
	check.Equal(t, KindAuthorization, KindOf(ErrForbidden))
	check.Equal(t, KindNotFound, KindOf(ErrNotFound))
	check.Equal(t, KindConflict, KindOf(ErrConcurrentBid))
	check.Equal(t, KindConflict, KindOf(ErrAlreadyDecided))
	check.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
	check.True(t, IsRetryable(ErrConcurrentBid))
	check.False(t, IsRetryable(ErrBidTooLow))
}
