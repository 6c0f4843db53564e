package model

import "time"

// EventType names a change that subscribers are told about.
type EventType string

const (
	EventBidPlaced        EventType = "bid.placed"
	EventAuctionSubmitted EventType = "auction.submitted"
	EventAuctionApproved  EventType = "auction.approved"
	EventAuctionRejected  EventType = "auction.rejected"
	EventAuctionExtended  EventType = "auction.extended"
	EventAuctionEnded     EventType = "auction.ended"
)

// Event is published after a change has been committed to the store.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	AuctionID  string    `json:"auction_id"`
	Auction    *Auction  `json:"auction,omitempty"`
	Bid        *Bid      `json:"bid,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
