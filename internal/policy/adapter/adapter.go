// Package adapter reads governance rules out of the active policy version
// for the services that consume them. The multi-signature coordinator and
// the lifecycle manager each declare a narrow rule interface; these
// adapters satisfy them from the policy service, so rule changes take
// effect on the next operation without restarting anything.
package adapter

import (
	"context"
	"fmt"
	"time"

	expirymodels "laurel/internal/expiry/models"
	msmodels "laurel/internal/multisig/models"
	"laurel/internal/policy/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// PolicyReader is the slice of the policy service the adapters consume.
type PolicyReader interface {
	Active(ctx context.Context) (*models.Version, error)
}

// QuorumSource supplies multi-signature quorum rules from the active
// policy. Satisfies the coordinator's PolicySource.
type QuorumSource struct {
	policies PolicyReader
}

func NewQuorumSource(policies PolicyReader) *QuorumSource {
	return &QuorumSource{policies: policies}
}

func (s *QuorumSource) QuorumRule(ctx context.Context, kind msmodels.OperationKind) (msmodels.QuorumConfig, error) {
	version, err := s.policies.Active(ctx)
	if err != nil {
		return msmodels.QuorumConfig{}, err
	}

	rule, ok := version.Document.MultiSig[string(kind)]
	if !ok {
		return msmodels.QuorumConfig{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("the active policy has no quorum rule for %q operations", kind))
	}

	signers := make([]id.UserID, 0, len(rule.Signers))
	for _, raw := range rule.Signers {
		signer, err := id.ParseUserID(raw)
		if err != nil {
			return msmodels.QuorumConfig{}, dErrors.Wrap(err, dErrors.CodeInternal,
				fmt.Sprintf("policy version %d signer list", version.Number))
		}
		signers = append(signers, signer)
	}

	return msmodels.QuorumConfig{
		Threshold:      rule.Threshold,
		Signers:        signers,
		ProposalWindow: time.Duration(rule.ProposalWindow),
	}, nil
}

// RenewalSource supplies renewal thresholds from the active policy.
// Satisfies the lifecycle manager's RenewalPolicy.
type RenewalSource struct {
	policies PolicyReader
}

func NewRenewalSource(policies PolicyReader) *RenewalSource {
	return &RenewalSource{policies: policies}
}

func (s *RenewalSource) RenewalRule(ctx context.Context) (expirymodels.RenewalRule, error) {
	version, err := s.policies.Active(ctx)
	if err != nil {
		return expirymodels.RenewalRule{}, err
	}
	return expirymodels.RenewalRule{
		LargeExtensionThreshold: time.Duration(version.Document.Renewal.LargeExtensionThreshold),
		MaxExtension:            time.Duration(version.Document.Renewal.MaxExtension),
	}, nil
}
