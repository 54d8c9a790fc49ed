package dto

type PurchaseCreateRequest struct {
	SKU            string `json:"sku"`
	IdempotencyKey string `json:"idempotency_key"`
}

type PurchaseCreateResponse struct {
	TransactionID string `json:"transaction_id"`
	SKU           string `json:"sku"`
	Provider      string `json:"provider"`
	AmountCents   int    `json:"amount_cents"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Created       bool   `json:"created"`
}

type PurchaseWebhookRequest struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
}

type PurchaseWebhookResponse struct {
	OK            bool   `json:"ok"`
	TransactionID string `json:"transaction_id"`
	UserID        int64  `json:"user_id"`
	SKU           string `json:"sku"`
	Status        string `json:"status"`
	Idempotent    bool   `json:"idempotent"`
}
