package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/auction"
	"auctionhouse-api/internal/middleware"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/pkg/apierror"
	"auctionhouse-api/pkg/response"
)

// AuctionHandler serves browsing, listing and bidding.
type AuctionHandler struct {
	listings *service.ListingService
	bidding  *service.BiddingService
}

// NewAuctionHandler creates a new auction handler.
func NewAuctionHandler(listings *service.ListingService, bidding *service.BiddingService) *AuctionHandler {
	return &AuctionHandler{
		listings: listings,
		bidding:  bidding,
	}
}

// List handles GET /api/v1/auctions
func (h *AuctionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := service.ListQuery{
		Status: model.Status(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("recent"); v != "" {
		q.Recent, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, apierror.BadRequest("recent must be true or false"))
			return
		}
	}

	views, err := h.listings.ListAuctions(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSONWithMeta(w, views, limit, offset, len(views))
}

// auctionDetail is the single-auction response.
type auctionDetail struct {
	*model.AuctionView
	Watching bool `json:"watching"`
}

// Get handles GET /api/v1/auctions/{id}
func (h *AuctionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := middleware.GetUserID(ctx)
	id := chi.URLParam(r, "id")

	view, err := h.listings.GetAuction(ctx, id, viewer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	watching, err := h.listings.IsWatching(ctx, viewer, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, auctionDetail{AuctionView: view, Watching: watching})
}

// ListBids handles GET /api/v1/auctions/{id}/bids
func (h *AuctionHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bids, err := h.listings.ListBids(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSONWithMeta(w, bids, limit, offset, len(bids))
}

// CreateListing handles POST /api/v1/listings
func (h *AuctionHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var in auction.ListingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	listing, err := h.listings.CreateListing(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, listing)
}

// Submit handles POST /api/v1/auctions/{id}/submit
func (h *AuctionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a, err := h.listings.SubmitDraft(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, a)
}

// UpdateItem handles PATCH /api/v1/items/{id}
func (h *AuctionHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var upd auction.ItemUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.listings.UpdateItem(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, item)
}

// BidRequest is the body of a bid.
type BidRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// PlaceBid handles POST /api/v1/auctions/{id}/bids
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount == nil {
		writeError(w, r, apierror.ValidationError("", apierror.FieldError{Field: "amount", Message: "is required"}))
		return
	}

	res, err := h.bidding.PlaceBid(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()), *req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, res)
}

// BuyNow handles POST /api/v1/auctions/{id}/buy-now
func (h *AuctionHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	res, err := h.bidding.BuyNow(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, res)
}

// Watch handles PUT /api/v1/auctions/{id}/watch
func (h *AuctionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Watch(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// Unwatch handles DELETE /api/v1/auctions/{id}/watch
func (h *AuctionHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Unwatch(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}
