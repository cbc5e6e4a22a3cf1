package handler

import "medichain/internal/registry/models"

// RegisterPartyRequest is the admin registration payload.
type RegisterPartyRequest struct {
	Role        string `json:"role"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
}

// PartyResponse mirrors a registered party without internal fields.
type PartyResponse struct {
	AccountID   string `json:"account_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// PartyListResponse wraps an ordered party listing.
type PartyListResponse struct {
	Parties []PartyResponse `json:"parties"`
}

func toPartyResponse(p *models.Party) PartyResponse {
	return PartyResponse{
		AccountID:   p.AccountID.String(),
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
	}
}

func toPartyListResponse(parties []*models.Party) PartyListResponse {
	out := PartyListResponse{Parties: make([]PartyResponse, 0, len(parties))}
	for _, p := range parties {
		out.Parties = append(out.Parties, toPartyResponse(p))
	}
	return out
}
