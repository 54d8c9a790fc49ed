package dto

type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	Kind     string `json:"kind"`
}

type SwipeResponse struct {
	OK      bool           `json:"ok"`
	IsMatch bool           `json:"is_match"`
	MatchID int64          `json:"match_id,omitempty"`
	ChatID  string         `json:"chat_id,omitempty"`
	Charge  ChargeResponse `json:"charge"`
}

type RewindResponse struct {
	OK             bool           `json:"ok"`
	UndoneKind     string         `json:"undone_kind"`
	UndoneTargetID int64          `json:"undone_target_id"`
	Charge         ChargeResponse `json:"charge"`
}
