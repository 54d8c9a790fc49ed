package dto

import "time"

type QuotaResponse struct {
	Tier           string    `json:"tier"`
	ViewsRemaining int       `json:"views_remaining"`
	LikesRemaining int       `json:"likes_remaining"`
	ResetAt        time.Time `json:"reset_at"`
}

type InventoryResponse struct {
	Balances map[string]int `json:"balances"`
}

type BoostResponse struct {
	OK        bool           `json:"ok"`
	ExpiresAt time.Time      `json:"expires_at"`
	Charge    ChargeResponse `json:"charge"`
}

type BoostStatusResponse struct {
	Active       bool       `json:"active"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RemainingSec int64      `json:"remaining_sec"`
}
