package handlers

import (
	gatesvc "github.com/botalove/backend/internal/services/gate"
	"github.com/botalove/backend/internal/transport/http/dto"
)

func mapCharge(decision gatesvc.Decision) dto.ChargeResponse {
	return dto.ChargeResponse{
		Granted:     decision.Granted,
		Reason:      decision.Reason,
		ChargedFrom: decision.ChargedFrom,
		Remaining:   decision.Remaining,
		Tier:        string(decision.Tier),
	}
}
