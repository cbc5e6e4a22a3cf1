package handler

import (
	"medichain/internal/verification/models"
	"medichain/internal/verification/projection"
	"medichain/internal/verification/service"
)

// RequestSecondaryRequest names the secondary verifier being asked.
type RequestSecondaryRequest struct {
	Target string `json:"target"`
}

// StatusResponse is the derived verification state of one record.
type StatusResponse struct {
	RecordID            uint64 `json:"record_id"`
	Owner               string `json:"owner"`
	ArtifactHash        string `json:"artifact_hash"`
	PrimaryVerifierName string `json:"primary_verifier_name"`
	Primary             string `json:"primary"`
	Secondary           string `json:"secondary"`
	SecondaryTarget     string `json:"secondary_target,omitempty"`
}

// StatusListResponse wraps statuses ordered by record ID.
type StatusListResponse struct {
	Statuses []StatusResponse `json:"statuses"`
}

// AnomalyResponse is one event replay could not apply.
type AnomalyResponse struct {
	Position uint64 `json:"position"`
	RecordID uint64 `json:"record_id"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// HealthResponse reports snapshot freshness and fold anomalies.
type HealthResponse struct {
	LedgerHead       uint64            `json:"ledger_head"`
	SnapshotPosition uint64            `json:"snapshot_position"`
	Anomalies        []AnomalyResponse `json:"anomalies"`
}

func toStatusResponse(status *models.Status) StatusResponse {
	return StatusResponse{
		RecordID:            uint64(status.RecordID),
		Owner:               status.Owner.String(),
		ArtifactHash:        status.ArtifactHash,
		PrimaryVerifierName: status.PrimaryVerifierName,
		Primary:             string(status.Primary),
		Secondary:           string(status.Secondary),
		SecondaryTarget:     status.SecondaryTarget,
	}
}

func toStatusListResponse(statuses []*models.Status) StatusListResponse {
	out := StatusListResponse{Statuses: make([]StatusResponse, 0, len(statuses))}
	for _, status := range statuses {
		out.Statuses = append(out.Statuses, toStatusResponse(status))
	}
	return out
}

func toHealthResponse(report *service.HealthReport) HealthResponse {
	out := HealthResponse{
		LedgerHead:       report.LedgerHead,
		SnapshotPosition: report.SnapshotPosition,
		Anomalies:        make([]AnomalyResponse, 0, len(report.Anomalies)),
	}
	for _, a := range report.Anomalies {
		out.Anomalies = append(out.Anomalies, toAnomalyResponse(a))
	}
	return out
}

func toAnomalyResponse(a projection.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		Position: a.Position,
		RecordID: uint64(a.RecordID),
		Kind:     string(a.Kind),
		Reason:   a.Reason,
	}
}
