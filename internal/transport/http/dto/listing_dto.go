package dto

import "time"

type ListingPublishRequest struct {
	Title         string `json:"title"`
	DurationDays  int    `json:"duration_days"`
	HighlightDays int    `json:"highlight_days,omitempty"`
}

type ListingQuoteResponse struct {
	ListingID          int64  `json:"listing_id"`
	Status             string `json:"status"`
	DurationDays       int    `json:"duration_days"`
	HighlightDays      int    `json:"highlight_days"`
	DurationPriceCents int    `json:"duration_price_cents"`
	HighlightCents     int    `json:"highlight_cents"`
	TotalCents         int    `json:"total_cents"`
}

type ListingPaymentRequest struct {
	Provider  string `json:"provider,omitempty"`
	Reference string `json:"reference,omitempty"`
	Succeeded bool   `json:"succeeded"`
}

type ListingRenewRequest struct {
	RenewHighlight bool                  `json:"renew_highlight"`
	Payment        ListingPaymentRequest `json:"payment"`
}

type ListingStatusResponse struct {
	ListingID             int64      `json:"listing_id"`
	Title                 string     `json:"title"`
	State                 string     `json:"state"`
	Active                bool       `json:"active"`
	Highlighted           bool       `json:"highlighted"`
	Interested            int        `json:"interested"`
	ActiveRemainingSec    int64      `json:"active_remaining_sec"`
	HighlightRemainingSec int64      `json:"highlight_remaining_sec"`
	CreatedAt             time.Time  `json:"created_at"`
}

type ListingInterestedResponse struct {
	OK         bool `json:"ok"`
	Interested int  `json:"interested"`
}
