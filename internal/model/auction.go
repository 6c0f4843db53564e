package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an auction.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusLive      Status = "live"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusLive, StatusEnded, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// Condition describes the physical state of a listed item.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Item is the thing being sold. It is owned by its seller.
type Item struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id,omitempty"`
	Condition   Condition       `json:"condition"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Images      []string        `json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Auction references exactly one Item. CurrentPrice never decreases.
type Auction struct {
	ID              string           `json:"id"`
	ItemID          string           `json:"item_id"`
	SellerID        string           `json:"seller_id"`
	Status          Status           `json:"status"`
	CurrentPrice    decimal.Decimal  `json:"current_price"`
	MinIncrement    decimal.Decimal  `json:"min_increment"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price,omitempty"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	DurationMinutes int              `json:"duration_minutes"`
	AntiSniping     bool             `json:"anti_sniping"`
	WinnerBidID     string           `json:"winner_bid_id,omitempty"`
	WinnerID        string           `json:"winner_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Bid is an append-only record of an accepted offer.
type Bid struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Listing pairs an auction with its item.
type Listing struct {
	Auction *Auction `json:"auction"`
	Item    *Item    `json:"item"`
}

// AuctionView is the read model clients render from.
type AuctionView struct {
	Listing
	LeaderID         string          `json:"leader_id,omitempty"`
	BidCount         int             `json:"bid_count"`
	MinNextBid       decimal.Decimal `json:"min_next_bid"`
	SecondsRemaining int64           `json:"seconds_remaining"`
	RecentlyEnded    bool            `json:"recently_ended"`
}

// AuctionFilter narrows auction listings.
type AuctionFilter struct {
	Statuses   []Status
	SellerID   string
	EndedSince *time.Time // only applies to ended auctions
	Limit      int
	Offset     int
}
