package handler

import (
	"time"

	"laurel/internal/policy/models"
)

// QuorumRuleResponse is one operation kind's approval requirement.
type QuorumRuleResponse struct {
	Threshold      int      `json:"threshold"`
	Signers        []string `json:"signers"`
	ProposalWindow string   `json:"proposal_window"`
}

// RenewalRuleResponse is the renewal thresholds, durations as strings.
type RenewalRuleResponse struct {
	LargeExtensionThreshold string `json:"large_extension_threshold"`
	MaxExtension            string `json:"max_extension"`
}

// LimitsResponse is the batch and graph bounds.
type LimitsResponse struct {
	MaxMintBatch      int `json:"max_mint_batch"`
	MaxBulkBatch      int `json:"max_bulk_batch"`
	MaxGraphNodes     int `json:"max_graph_nodes"`
	MaxTraversalDepth int `json:"max_traversal_depth"`
}

// DocumentResponse is the parsed policy document.
type DocumentResponse struct {
	MultiSig map[string]QuorumRuleResponse `json:"multisig"`
	Renewal  RenewalRuleResponse           `json:"renewal"`
	Limits   LimitsResponse                `json:"limits"`
}

func toDocumentResponse(doc models.Document) DocumentResponse {
	multisig := make(map[string]QuorumRuleResponse, len(doc.MultiSig))
	for kind, rule := range doc.MultiSig {
		multisig[kind] = QuorumRuleResponse{
			Threshold:      rule.Threshold,
			Signers:        append([]string(nil), rule.Signers...),
			ProposalWindow: rule.ProposalWindow.String(),
		}
	}
	return DocumentResponse{
		MultiSig: multisig,
		Renewal: RenewalRuleResponse{
			LargeExtensionThreshold: doc.Renewal.LargeExtensionThreshold.String(),
			MaxExtension:            doc.Renewal.MaxExtension.String(),
		},
		Limits: LimitsResponse{
			MaxMintBatch:      doc.Limits.MaxMintBatch,
			MaxBulkBatch:      doc.Limits.MaxBulkBatch,
			MaxGraphNodes:     doc.Limits.MaxGraphNodes,
			MaxTraversalDepth: doc.Limits.MaxTraversalDepth,
		},
	}
}

// VersionResponse is the wire shape of one policy version.
type VersionResponse struct {
	Version     int              `json:"version"`
	Checksum    string           `json:"checksum"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	ActivatedAt *time.Time       `json:"activated_at,omitempty"`
	Document    DocumentResponse `json:"document"`
}

func toVersionResponse(version *models.Version) *VersionResponse {
	return &VersionResponse{
		Version:     version.Number,
		Checksum:    version.Checksum,
		Active:      version.Active,
		CreatedAt:   version.CreatedAt,
		ActivatedAt: version.ActivatedAt,
		Document:    toDocumentResponse(version.Document),
	}
}

// HistoryResponse is every loaded version, oldest first.
type HistoryResponse struct {
	Versions []VersionResponse `json:"versions"`
	Count    int               `json:"count"`
}

func toHistoryResponse(versions []*models.Version) *HistoryResponse {
	out := make([]VersionResponse, 0, len(versions))
	for _, version := range versions {
		out = append(out, *toVersionResponse(version))
	}
	return &HistoryResponse{Versions: out, Count: len(out)}
}
