package dto

type AuthorizeRequest struct {
	Action string `json:"action"`
}

type AuthorizeResponse struct {
	Action string         `json:"action"`
	Charge ChargeResponse `json:"charge"`
}
