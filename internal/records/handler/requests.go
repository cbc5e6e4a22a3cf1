package handler

import (
	"time"

	"medichain/internal/records/models"
)

// MintRequest is the payload for minting a record.
type MintRequest struct {
	ArtifactHash        string `json:"artifact_hash"`
	PrimaryVerifierName string `json:"primary_verifier_name"`
}

// RecordResponse mirrors a minted record.
type RecordResponse struct {
	RecordID            uint64 `json:"record_id"`
	Owner               string `json:"owner"`
	ArtifactHash        string `json:"artifact_hash"`
	PrimaryVerifierName string `json:"primary_verifier_name"`
	CreatedAt           string `json:"created_at"`
}

// RecordListResponse wraps records in mint order.
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
}

func toRecordResponse(record *models.Record) RecordResponse {
	return RecordResponse{
		RecordID:            uint64(record.ID),
		Owner:               record.Owner.String(),
		ArtifactHash:        record.ArtifactHash,
		PrimaryVerifierName: record.PrimaryVerifierName,
		CreatedAt:           record.CreatedAt.Format(time.RFC3339),
	}
}

func toRecordListResponse(records []*models.Record) RecordListResponse {
	out := RecordListResponse{Records: make([]RecordResponse, 0, len(records))}
	for _, record := range records {
		out.Records = append(out.Records, toRecordResponse(record))
	}
	return out
}
