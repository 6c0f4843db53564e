package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auctionhouse-api/internal/middleware"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/pkg/response"
)

// UserHandler serves the signed-in user's own data and public profiles.
type UserHandler struct {
	profiles *service.ProfileService
	listings *service.ListingService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(profiles *service.ProfileService, listings *service.ListingService) *UserHandler {
	return &UserHandler{profiles: profiles, listings: listings}
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.profiles.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, me)
}

// UpdateProfile handles PUT /api/v1/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.profiles.Update(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, p)
}

// Profile handles GET /api/v1/users/{id}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, p)
}

// Watchlist handles GET /api/v1/me/watchlist
func (h *UserHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	views, err := h.listings.Watchlist(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, views)
}

// Listings handles GET /api/v1/me/listings
func (h *UserHandler) Listings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.listings.SellerListings(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSONWithMeta(w, views, limit, offset, len(views))
}

// Bids handles GET /api/v1/me/bids
func (h *UserHandler) Bids(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bids, err := h.listings.BidderHistory(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSONWithMeta(w, bids, limit, offset, len(bids))
}
