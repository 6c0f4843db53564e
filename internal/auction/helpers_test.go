package auction

import (
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/model"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func liveAuction(price, increment string, endsIn time.Duration) *model.Auction {
	start := testNow.Add(-time.Hour)
	end := testNow.Add(endsIn)
	return &model.Auction{
		ID:           "auction-1",
		ItemID:       "item-1",
		SellerID:     "seller",
		Status:       model.StatusLive,
		CurrentPrice: dec(price),
		MinIncrement: dec(increment),
		StartTime:    &start,
		EndTime:      &end,
		AntiSniping:  true,
	}
}
