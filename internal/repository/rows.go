package repository

import (
	"database/sql"

	"auctionhouse-api/internal/model"
)

const (
	auctionColumns = `a.id, a.item_id, a.seller_id, a.status, a.current_price, a.min_increment,
		a.buy_now_price, a.start_time, a.end_time, a.duration_minutes, a.anti_sniping,
		a.winner_bid_id, a.winner_id, a.created_at, a.updated_at`
	itemColumns = `i.id, i.seller_id, i.title, i.description, i.category_id, i.item_condition,
		i.base_price, i.images, i.created_at, i.updated_at`
	bidColumns = `id, auction_id, bidder_id, amount, created_at`
)

type scanner interface {
	Scan(dest ...any) error
}

// auctionRow holds the raw column values of an auctions row.
type auctionRow struct {
	id, itemID, sellerID, status string
	currentPrice, minIncrement   int64
	buyNowPrice                  sql.NullInt64
	startTime, endTime           sql.NullInt64
	durationMinutes              int
	antiSniping                  int64
	winnerBidID, winnerID        string
	createdAt, updatedAt         int64
}

func (r *auctionRow) fields() []any {
	return []any{
		&r.id, &r.itemID, &r.sellerID, &r.status, &r.currentPrice, &r.minIncrement,
		&r.buyNowPrice, &r.startTime, &r.endTime, &r.durationMinutes, &r.antiSniping,
		&r.winnerBidID, &r.winnerID, &r.createdAt, &r.updatedAt,
	}
}

func (r *auctionRow) model() *model.Auction {
	return &model.Auction{
		ID:              r.id,
		ItemID:          r.itemID,
		SellerID:        r.sellerID,
		Status:          model.Status(r.status),
		CurrentPrice:    fromCents(r.currentPrice),
		MinIncrement:    fromCents(r.minIncrement),
		BuyNowPrice:     fromNullCents(r.buyNowPrice),
		StartTime:       fromNullMillis(r.startTime),
		EndTime:         fromNullMillis(r.endTime),
		DurationMinutes: r.durationMinutes,
		AntiSniping:     r.antiSniping != 0,
		WinnerBidID:     r.winnerBidID,
		WinnerID:        r.winnerID,
		CreatedAt:       fromMillis(r.createdAt),
		UpdatedAt:       fromMillis(r.updatedAt),
	}
}

// itemRow holds the raw column values of an items row.
type itemRow struct {
	id, sellerID, title, description string
	categoryID, condition            string
	basePrice                        int64
	images                           string
	createdAt, updatedAt             int64
}

func (r *itemRow) fields() []any {
	return []any{
		&r.id, &r.sellerID, &r.title, &r.description, &r.categoryID, &r.condition,
		&r.basePrice, &r.images, &r.createdAt, &r.updatedAt,
	}
}

func (r *itemRow) model() *model.Item {
	return &model.Item{
		ID:          r.id,
		SellerID:    r.sellerID,
		Title:       r.title,
		Description: r.description,
		CategoryID:  r.categoryID,
		Condition:   model.Condition(r.condition),
		BasePrice:   fromCents(r.basePrice),
		Images:      decodeImages(r.images),
		CreatedAt:   fromMillis(r.createdAt),
		UpdatedAt:   fromMillis(r.updatedAt),
	}
}

func scanAuction(s scanner) (*model.Auction, error) {
	var r auctionRow
	if err := s.Scan(r.fields()...); err != nil {
		return nil, err
	}
	return r.model(), nil
}

func scanListing(s scanner) (*model.Listing, error) {
	var ar auctionRow
	var ir itemRow
	if err := s.Scan(append(ar.fields(), ir.fields()...)...); err != nil {
		return nil, err
	}
	return &model.Listing{Auction: ar.model(), Item: ir.model()}, nil
}

func scanBid(s scanner) (*model.Bid, error) {
	var (
		b         model.Bid
		amount    int64
		createdAt int64
	)
	if err := s.Scan(&b.ID, &b.AuctionID, &b.BidderID, &amount, &createdAt); err != nil {
		return nil, err
	}
	b.Amount = fromCents(amount)
	b.CreatedAt = fromMillis(createdAt)
	return &b, nil
}
