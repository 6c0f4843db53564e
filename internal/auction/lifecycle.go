package auction

import (
	"slices"
	"time"

	"auctionhouse-api/internal/model"
)

// transitions is the auction state machine. ended and cancelled are terminal.
var transitions = map[model.Status][]model.Status{
	model.StatusDraft:   {model.StatusPending},
	model.StatusPending: {model.StatusLive, model.StatusCancelled},
	model.StatusLive:    {model.StatusEnded, model.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to model.Status) bool {
	return slices.Contains(transitions[from], to)
}

// Submit moves a draft to pending and fixes its end time from the chosen duration.
func Submit(a model.Auction, now time.Time) (model.Auction, error) {
	if a.Status != model.StatusDraft {
		return a, ErrInvalidTransition
	}
	if a.DurationMinutes < MinCustomMinutes || a.DurationMinutes > MaxCustomMinutes {
		return a, &ValidationError{Fields: []FieldError{{Field: "duration", Message: "is out of range"}}}
	}
	a.Status = model.StatusPending
	end := now.Add(time.Duration(a.DurationMinutes) * time.Minute)
	a.EndTime = &end
	a.UpdatedAt = now
	return a, nil
}

// Approve moves a pending auction live. The end time fixed at submission is
// kept, so time spent in moderation comes out of the auction. Approving an
// auction that is already live is a no-op so that retried requests succeed;
// changed reports whether anything moved.
func Approve(a model.Auction, now time.Time) (next model.Auction, changed bool, err error) {
	switch a.Status {
	case model.StatusLive:
		return a, false, nil
	case model.StatusPending:
	case model.StatusDraft:
		return a, false, ErrInvalidTransition
	default:
		return a, false, ErrAlreadyDecided
	}

	a.Status = model.StatusLive
	a.StartTime = &now
	if a.EndTime == nil && a.DurationMinutes > 0 {
		end := now.Add(time.Duration(a.DurationMinutes) * time.Minute)
		a.EndTime = &end
	}
	a.UpdatedAt = now
	return a, true, nil
}

// Reject cancels a pending auction. Rejecting an already cancelled auction is a no-op.
func Reject(a model.Auction, now time.Time) (next model.Auction, changed bool, err error) {
	switch a.Status {
	case model.StatusCancelled:
		return a, false, nil
	case model.StatusPending:
	case model.StatusDraft:
		return a, false, ErrInvalidTransition
	default:
		return a, false, ErrAlreadyDecided
	}

	a.Status = model.StatusCancelled
	a.UpdatedAt = now
	return a, true, nil
}

// Finalize ends a live auction whose end time has passed and records the winner,
// if any bid exists.
func Finalize(a model.Auction, bids []model.Bid, now time.Time) (model.Auction, *model.Bid, error) {
	if a.Status != model.StatusLive {
		return a, nil, ErrInvalidTransition
	}
	if a.EndTime == nil || now.Before(*a.EndTime) {
		return a, nil, ErrNotExpired
	}

	a.Status = model.StatusEnded
	a.UpdatedAt = now
	winner := SelectWinner(bids)
	if winner != nil {
		a.WinnerBidID = winner.ID
		a.WinnerID = winner.BidderID
	}
	return a, winner, nil
}
