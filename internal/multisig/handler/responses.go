package handler

import (
	"time"

	"laurel/internal/multisig/models"
)

// RequestResponse is the wire shape of one approval request. The bound
// operation is summarized by kind and targets; payload details live in the
// audit trail and the proposal itself.
type RequestResponse struct {
	RequestID    string    `json:"request_id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	Proposer     string    `json:"proposer"`
	Threshold    int       `json:"threshold"`
	Signers      []string  `json:"signers"`
	SignedBy     []string  `json:"signed_by"`
	TargetIDs    []string  `json:"target_certificate_ids"`
	Reason       string    `json:"reason,omitempty"`
	NewExpiresAt *string   `json:"new_expires_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Deadline     time.Time `json:"deadline"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toRequestResponse(req *models.Request) *RequestResponse {
	signers := make([]string, len(req.Signers))
	for i, signer := range req.Signers {
		signers[i] = signer.String()
	}
	signedBy := make([]string, len(req.SignedBy))
	for i, signer := range req.SignedBy {
		signedBy[i] = signer.String()
	}
	targets := req.Operation.Targets()
	targetIDs := make([]string, len(targets))
	for i, certID := range targets {
		targetIDs[i] = certID.String()
	}

	resp := &RequestResponse{
		RequestID: req.ID.String(),
		Kind:      string(req.Operation.Kind),
		Status:    string(req.Status),
		Proposer:  req.Proposer.String(),
		Threshold: req.Threshold,
		Signers:   signers,
		SignedBy:  signedBy,
		TargetIDs: targetIDs,
		CreatedAt: req.CreatedAt,
		Deadline:  req.Deadline,
		UpdatedAt: req.UpdatedAt,
	}
	switch req.Operation.Kind {
	case models.KindRevoke:
		resp.Reason = req.Operation.Revoke.Reason
	case models.KindMetadataOverride:
		resp.Reason = req.Operation.MetadataOverride.Reason
	case models.KindLargeRenewal:
		formatted := req.Operation.LargeRenewal.NewExpiresAt.UTC().Format(time.RFC3339)
		resp.NewExpiresAt = &formatted
	}
	return resp
}

// AuditEntryResponse is one immutable record in a request's trail.
type AuditEntryResponse struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditTrailResponse struct {
	RequestID string               `json:"request_id"`
	Entries   []AuditEntryResponse `json:"entries"`
	Count     int                  `json:"count"`
}

func toAuditTrailResponse(requestID string, trail []*models.AuditEntry) *AuditTrailResponse {
	entries := make([]AuditEntryResponse, 0, len(trail))
	for _, entry := range trail {
		entries = append(entries, AuditEntryResponse{
			Actor:     entry.Actor.String(),
			Action:    string(entry.Action),
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		})
	}
	return &AuditTrailResponse{RequestID: requestID, Entries: entries, Count: len(entries)}
}

// SweepResponse reports one stale-request sweep.
type SweepResponse struct {
	Expired int `json:"expired"`
}
