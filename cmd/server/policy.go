package main

import (
	"context"
	"fmt"
	"os"

	"laurel/internal/platform/config"
	policyservice "laurel/internal/policy/service"
)

// defaultPolicyDocument is the governance policy the server boots with
// when POLICY_PATH is unset and the store holds no versions. It carries
// renewal defaults only: multi-signature rules name deployment-specific
// signers, so none ship built in — proposals fail with a clear error
// until an operator loads a real policy.
const defaultPolicyDocument = `renewal:
  large_extension_threshold: 2160h
  max_extension: 8760h
`

// seedPolicy ensures an active policy version exists before the server
// takes traffic, then overlays the active version's limits onto the
// environment configuration so one document governs both. Zero limits in
// the document keep the environment values.
func seedPolicy(ctx context.Context, policies *policyservice.Service, cfg *config.Config) error {
	source := []byte(defaultPolicyDocument)
	if cfg.Governance.PolicyPath != "" {
		loaded, err := os.ReadFile(cfg.Governance.PolicyPath)
		if err != nil {
			return fmt.Errorf("read policy document %s: %w", cfg.Governance.PolicyPath, err)
		}
		source = loaded
	}

	version, err := policies.Seed(ctx, source)
	if err != nil {
		return fmt.Errorf("seed governance policy: %w", err)
	}

	limits := version.Document.Limits
	if limits.MaxMintBatch > 0 {
		cfg.Governance.MaxMintBatch = limits.MaxMintBatch
	}
	if limits.MaxBulkBatch > 0 {
		cfg.Governance.MaxBulkBatch = limits.MaxBulkBatch
	}
	if limits.MaxGraphNodes > 0 {
		cfg.Governance.MaxGraphNodes = limits.MaxGraphNodes
	}
	if limits.MaxTraversalDepth > 0 {
		cfg.Governance.MaxTraversalDepth = limits.MaxTraversalDepth
	}
	return nil
}
