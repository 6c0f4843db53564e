// Package auction holds the marketplace rules: bid validation, the auction
// lifecycle state machine, winner selection and listing validation.
// Everything here is pure; persistence and fan-out live elsewhere.
package auction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrSelfBid           = errors.New("sellers cannot bid on their own auction")
	ErrBidTooLow         = errors.New("bid too low")
	ErrAuctionNotLive    = errors.New("auction is not live")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrConcurrentBid     = errors.New("auction price changed concurrently")
	ErrAlreadyDecided    = errors.New("auction has already been moderated")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotExpired        = errors.New("auction has not reached its end time")
	ErrBuyNowUnavailable = errors.New("buy now is not available for this auction")
)

// BidTooLowError carries the minimum amount that would have been accepted.
type BidTooLowError struct {
	Amount      decimal.Decimal
	MinRequired decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid %s is too low, minimum bid is %s",
		e.Amount.StringFixed(2), e.MinRequired.StringFixed(2))
}

func (e *BidTooLowError) Is(target error) bool { return target == ErrBidTooLow }

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects malformed-input problems. Operations that return it
// were not attempted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field problem.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"    // report inline, never retried
	KindAuthorization Kind = "authorization" // report, never retried
	KindConflict      Kind = "conflict"      // state moved underneath the caller
	KindNotFound      Kind = "not_found"     // terminal
	KindInternal      Kind = "internal"
)

// KindOf classifies err.
func KindOf(err error) Kind {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr), errors.Is(err, ErrBidTooLow):
		return KindValidation
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrSelfBid):
		return KindAuthorization
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConcurrentBid),
		errors.Is(err, ErrAlreadyDecided),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAuctionNotLive),
		errors.Is(err, ErrAuctionEnded),
		errors.Is(err, ErrNotExpired),
		errors.Is(err, ErrBuyNowUnavailable):
		return KindConflict
	default:
		return KindInternal
	}
}

// IsRetryable reports whether re-reading state and trying again may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentBid)
}
