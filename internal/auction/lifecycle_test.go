package auction

import (
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"auctionhouse-api/internal/model"
)

func TestCanTransition(t *testing.T) {
	check.True(t, CanTransition(model.StatusDraft, model.StatusPending))
	check.True(t, CanTransition(model.StatusPending, model.StatusLive))
	check.True(t, CanTransition(model.StatusPending, model.StatusCancelled))
	check.True(t, CanTransition(model.StatusLive, model.StatusEnded))
	check.False(t, CanTransition(model.StatusDraft, model.StatusLive))
	check.False(t, CanTransition(model.StatusEnded, model.StatusLive))
	check.False(t, CanTransition(model.StatusCancelled, model.StatusPending))
}

func TestApprove_Idempotent(t *testing.T) {
	a := model.Auction{Status: model.StatusPending, DurationMinutes: 60}

	live, changed, err := Approve(a, testNow)
	assert.NoError(t, err)
	check.True(t, changed)
	check.Equal(t, model.StatusLive, live.Status)
	check.True(t, live.StartTime.Equal(testNow))
	check.True(t, live.EndTime.Equal(testNow.Add(time.Hour)))

	again, changed, err := Approve(live, testNow.Add(time.Minute))
	assert.NoError(t, err)
	check.False(t, changed)
	check.Equal(t, model.StatusLive, again.Status)
	check.True(t, again.StartTime.Equal(testNow))
}

func TestApprove_KeepsSubmittedEndTime(t *testing.T) {
	a := model.Auction{Status: model.StatusDraft, DurationMinutes: 60}
	pending, err := Submit(a, testNow)
	assert.NoError(t, err)
	check.Nil(t, pending.StartTime)

	approvedAt := testNow.Add(3 * time.Hour)
	live, changed, err := Approve(pending, approvedAt)
	assert.NoError(t, err)
	check.True(t, changed)
	check.True(t, live.StartTime.Equal(approvedAt))
	check.True(t, live.EndTime.Equal(testNow.Add(time.Hour)))
}

func TestApprove_DecidedAuctions(t *testing.T) {
	for _, s := range []model.Status{model.StatusCancelled, model.StatusEnded} {
		_, _, err := Approve(model.Auction{Status: s}, testNow)
		check.True(t, errors.Is(err, ErrAlreadyDecided))
	}
	_, _, err := Approve(model.Auction{Status: model.StatusDraft}, testNow)
	check.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestReject_Idempotent(t *testing.T) {
	a := model.Auction{Status: model.StatusPending}

	cancelled, changed, err := Reject(a, testNow)
	assert.NoError(t, err)
	check.True(t, changed)
	check.Equal(t, model.StatusCancelled, cancelled.Status)

	_, changed, err = Reject(cancelled, testNow)
	assert.NoError(t, err)
	check.False(t, changed)

	_, _, err = Reject(model.Auction{Status: model.StatusLive}, testNow)
	check.True(t, errors.Is(err, ErrAlreadyDecided))
}

func TestSubmit(t *testing.T) {
	a := model.Auction{Status: model.StatusDraft, DurationMinutes: 30}
	pending, err := Submit(a, testNow)
	assert.NoError(t, err)
	check.Equal(t, model.StatusPending, pending.Status)
	check.Nil(t, pending.StartTime)
	check.True(t, pending.EndTime.Equal(testNow.Add(30*time.Minute)))

	_, err = Submit(pending, testNow)
	check.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestFinalize(t *testing.T) {
	a := *liveAuction("150", "10", -time.Second)
	bids := []model.Bid{
		{ID: "b1", BidderID: "A", Amount: dec("100"), CreatedAt: testNow.Add(-3 * time.Minute)},
		{ID: "b2", BidderID: "B", Amount: dec("150"), CreatedAt: testNow.Add(-2 * time.Minute)},
	}

	ended, winner, err := Finalize(a, bids, testNow)
	assert.NoError(t, err)
	check.Equal(t, model.StatusEnded, ended.Status)
	check.NotNil(t, winner)
	check.Equal(t, "B", ended.WinnerID)
	check.Equal(t, "b2", ended.WinnerBidID)

	_, _, err = Finalize(ended, bids, testNow)
	check.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestFinalize_NoBidsNoWinner(t *testing.T) {
	a := *liveAuction("100", "10", -time.Second)
	ended, winner, err := Finalize(a, nil, testNow)
	assert.NoError(t, err)
	check.Nil(t, winner)
	check.Equal(t, "", ended.WinnerID)
	check.Equal(t, model.StatusEnded, ended.Status)
}

func TestFinalize_NotExpired(t *testing.T) {
	a := *liveAuction("100", "10", time.Minute)
	_, _, err := Finalize(a, nil, testNow)
	check.True(t, errors.Is(err, ErrNotExpired))
}
