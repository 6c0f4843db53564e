package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auctionhouse-api/internal/middleware"
	"auctionhouse-api/internal/service"
)

// Subscriber upgrades a request into a change feed for one auction.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, auctionID string)
}

// WSHandler serves the real-time auction feed.
type WSHandler struct {
	listings *service.ListingService
	hub      Subscriber
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(listings *service.ListingService, hub Subscriber) *WSHandler {
	return &WSHandler{listings: listings, hub: hub}
}

// Subscribe handles GET /ws/auctions/{id}. The auction must be visible to
// the caller before the connection is upgraded.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.listings.GetAuction(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	h.hub.ServeWS(w, r, id)
}
