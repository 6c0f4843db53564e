package auction

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/uid"
)

const (
	MinCustomMinutes = 1
	MaxCustomMinutes = 43200 // 30 days

	maxTitleLength = 200
)

// AllowedDurationDays are the fixed durations a seller can pick.
var AllowedDurationDays = []int{1, 3, 7, 14}

// Duration is the seller's duration selection: either Days from
// AllowedDurationDays or CustomMinutes in [MinCustomMinutes, MaxCustomMinutes].
type Duration struct {
	Days          int `json:"days,omitempty"`
	CustomMinutes int `json:"custom_minutes,omitempty"`
}

// Minutes resolves the selection to a minute count.
func (d Duration) Minutes() (int, error) {
	switch {
	case d.Days != 0 && d.CustomMinutes != 0:
		return 0, &ValidationError{Fields: []FieldError{{Field: "duration", Message: "choose either days or custom_minutes"}}}
	case d.Days != 0:
		if !slices.Contains(AllowedDurationDays, d.Days) {
			return 0, &ValidationError{Fields: []FieldError{{Field: "duration.days", Message: "must be one of 1, 3, 7, 14"}}}
		}
		return d.Days * 24 * 60, nil
	default:
		if d.CustomMinutes < MinCustomMinutes || d.CustomMinutes > MaxCustomMinutes {
			return 0, &ValidationError{Fields: []FieldError{{Field: "duration.custom_minutes", Message: "must be between 1 and 43200"}}}
		}
		return d.CustomMinutes, nil
	}
}

// ListingInput is what a seller submits to list an item.
type ListingInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	CategoryID   string           `json:"category_id"`
	Condition    model.Condition  `json:"condition"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	MinIncrement decimal.Decimal  `json:"min_increment"`
	BuyNowPrice  *decimal.Decimal `json:"buy_now_price"`
	Images       []string         `json:"images"`
	Duration     Duration         `json:"duration"`
	AntiSniping  *bool            `json:"anti_sniping"`
	Draft        bool             `json:"draft"`
}

// ValidateListing checks every field of in and reports all problems at once.
func ValidateListing(in ListingInput) error {
	verr := &ValidationError{}
	validateItemFields(verr, in.Title, in.Description, in.Condition)

	if !validMoney(in.BasePrice) {
		verr.Add("base_price", "must be between 0 and 1000000000000 with at most two decimal places")
	}
	if !in.MinIncrement.IsPositive() || !validMoney(in.MinIncrement) {
		verr.Add("min_increment", "must be greater than 0 and at most 1000000000000")
	}
	if in.BuyNowPrice != nil {
		switch {
		case !validMoney(*in.BuyNowPrice):
			verr.Add("buy_now_price", "must be between 0 and 1000000000000 with at most two decimal places")
		case in.BuyNowPrice.LessThan(in.BasePrice):
			verr.Add("buy_now_price", "must not be lower than base_price")
		}
	}
	if _, err := in.Duration.Minutes(); err != nil {
		if de, ok := err.(*ValidationError); ok {
			verr.Fields = append(verr.Fields, de.Fields...)
		}
	}
	return verr.OrNil()
}

func validateItemFields(verr *ValidationError, title, description string, condition model.Condition) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case len(title) > maxTitleLength:
		verr.Add("title", "must be at most 200 characters")
	}
	if strings.TrimSpace(description) == "" {
		verr.Add("description", "is required")
	}
	if !condition.Valid() {
		verr.Add("condition", "must be one of new, like_new, good, fair, poor")
	}
}

// NewListing builds the item and auction rows for a validated submission.
// Drafts keep their duration and get an end time when submitted; everything
// else starts out pending moderation.
func NewListing(sellerID string, in ListingInput, now time.Time) (model.Item, model.Auction, error) {
	if sellerID == "" {
		return model.Item{}, model.Auction{}, ErrForbidden
	}
	if err := ValidateListing(in); err != nil {
		return model.Item{}, model.Auction{}, err
	}
	minutes, _ := in.Duration.Minutes()

	images := in.Images
	if images == nil {
		images = []string{}
	}
	item := model.Item{
		ID:          uid.New(),
		SellerID:    sellerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		Condition:   in.Condition,
		BasePrice:   in.BasePrice,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	antiSniping := true
	if in.AntiSniping != nil {
		antiSniping = *in.AntiSniping
	}
	a := model.Auction{
		ID:              uid.New(),
		ItemID:          item.ID,
		SellerID:        sellerID,
		Status:          model.StatusDraft,
		CurrentPrice:    in.BasePrice,
		MinIncrement:    in.MinIncrement,
		BuyNowPrice:     in.BuyNowPrice,
		DurationMinutes: minutes,
		AntiSniping:     antiSniping,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Draft {
		return item, a, nil
	}

	a, err := Submit(a, now)
	return item, a, err
}

// ItemUpdate carries the seller-editable metadata of an item. Nil fields are
// left unchanged. The base price is fixed once the auction exists.
type ItemUpdate struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id"`
	Condition   *model.Condition `json:"condition"`
	Images      []string         `json:"images"`
}

// ApplyItemUpdate returns item with upd applied, after checking ownership.
func ApplyItemUpdate(item model.Item, actorID string, upd ItemUpdate, now time.Time) (model.Item, error) {
	if actorID == "" || actorID != item.SellerID {
		return item, ErrForbidden
	}
	if upd.Title != nil {
		item.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		item.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.CategoryID != nil {
		item.CategoryID = *upd.CategoryID
	}
	if upd.Condition != nil {
		item.Condition = *upd.Condition
	}
	if upd.Images != nil {
		item.Images = upd.Images
	}

	verr := &ValidationError{}
	validateItemFields(verr, item.Title, item.Description, item.Condition)
	if err := verr.OrNil(); err != nil {
		return item, err
	}
	item.UpdatedAt = now
	return item, nil
}
