package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/pkg/apierror"
	"auctionhouse-api/pkg/logging"
	"auctionhouse-api/pkg/response"
)

const maxBodyBytes = 1 << 20

// toAPIError maps a domain error onto the HTTP error envelope. Each error kind
// has exactly one status code.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var tooLow *auction.BidTooLowError
	if errors.As(err, &tooLow) {
		return apierror.ValidationError(err.Error(), apierror.FieldError{
			Field:   "amount",
			Message: "minimum bid is " + tooLow.MinRequired.StringFixed(2),
		}).WithCode("BID_TOO_LOW")
	}

	var verr *auction.ValidationError
	if errors.As(err, &verr) {
		details := make([]apierror.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = apierror.FieldError{Field: f.Field, Message: f.Message}
		}
		return apierror.ValidationError("", details...)
	}

	switch auction.KindOf(err) {
	case auction.KindValidation:
		return apierror.ValidationError(err.Error())
	case auction.KindAuthorization:
		e := apierror.Forbidden(err.Error())
		if errors.Is(err, auction.ErrSelfBid) {
			e.WithCode("SELF_BID")
		}
		return e
	case auction.KindNotFound:
		return apierror.NotFound("")
	case auction.KindConflict:
		e := apierror.Conflict(err.Error()).WithCode(conflictCode(err))
		e.Retryable = auction.IsRetryable(err)
		return e
	default:
		return apierror.InternalError("")
	}
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, auction.ErrConcurrentBid):
		return "CONCURRENT_BID"
	case errors.Is(err, auction.ErrAuctionEnded):
		return "AUCTION_ENDED"
	case errors.Is(err, auction.ErrAuctionNotLive):
		return "AUCTION_NOT_LIVE"
	case errors.Is(err, auction.ErrAlreadyDecided):
		return "ALREADY_DECIDED"
	case errors.Is(err, auction.ErrBuyNowUnavailable):
		return "BUY_NOW_UNAVAILABLE"
	case errors.Is(err, auction.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	default:
		return "CONFLICT"
	}
}

// writeError logs unexpected failures and writes the mapped error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logging.Component("http").Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	response.Error(w, apiErr)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// pagination reads limit and offset query parameters.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, apierror.BadRequest("limit must be a non-negative integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, apierror.BadRequest("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
