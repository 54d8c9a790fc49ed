package dto

// ChargeResponse reports how an action was paid for. Remaining is -1 when the
// charged source is unmetered.
type ChargeResponse struct {
	Granted     bool   `json:"granted"`
	Reason      string `json:"reason,omitempty"`
	ChargedFrom string `json:"charged_from"`
	Remaining   int    `json:"remaining"`
	Tier        string `json:"tier"`
}
