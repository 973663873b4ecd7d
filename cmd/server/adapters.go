package main

import (
	"context"
	"time"

	"laurel/internal/access/revocation"
	certservice "laurel/internal/certificate/service"
	expiryservice "laurel/internal/expiry/service"
	msmodels "laurel/internal/multisig/models"
	msservice "laurel/internal/multisig/service"
	prereqservice "laurel/internal/prereq/service"
	id "laurel/pkg/domain"
)

// eligibilityAdapter adapts the prerequisite service to the certificate
// service's EligibilityChecker interface. The violation records are
// flattened to a missing-course list at the composition root, keeping the
// certificate module decoupled from prereq/models.
type eligibilityAdapter struct {
	prereqs *prereqservice.Service
}

func (a *eligibilityAdapter) CheckEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) (bool, []id.CourseID, error) {
	result, err := a.prereqs.CheckEligibility(ctx, studentID, courseID)
	if err != nil {
		return false, nil, err
	}
	if result.Satisfied {
		return true, nil, nil
	}
	missing := make([]id.CourseID, 0, len(result.Violations))
	for _, violation := range result.Violations {
		missing = append(missing, violation.RequiredCourseID)
	}
	return false, missing, nil
}

// approvalRouterAdapter adapts the multi-signature coordinator to the
// lifecycle service's ApprovalRouter interface: a large renewal becomes a
// large_renewal operation submitted on the requester's behalf.
type approvalRouterAdapter struct {
	coordinator *msservice.Service
}

func (a *approvalRouterAdapter) SubmitLargeRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (id.RequestID, error) {
	op, err := msmodels.NewLargeRenewalOperation(certificateID, newExpiry)
	if err != nil {
		return id.RequestID{}, err
	}
	req, err := a.coordinator.Submit(ctx, requester, op)
	if err != nil {
		return id.RequestID{}, err
	}
	return req.ID, nil
}

// operationExecutor dispatches approved multi-signature operations onto
// the certificate and lifecycle services. The fields are assigned after
// construction: the coordinator needs the executor before the lifecycle
// service exists, and the lifecycle service routes large renewals back
// through the coordinator. All wiring completes before the server accepts
// traffic.
type operationExecutor struct {
	certs     *certservice.Service
	lifecycle *expiryservice.Service
}

func (e *operationExecutor) RevokeCertificate(ctx context.Context, actor id.UserID, certificateID id.CertificateID, reason string) error {
	return e.certs.Revoke(ctx, actor, certificateID, reason)
}

func (e *operationExecutor) OverrideMetadata(ctx context.Context, actor id.UserID, certificateID id.CertificateID, newURI, reason string) error {
	return e.certs.UpdateMetadataURI(ctx, actor, certificateID, newURI, reason)
}

func (e *operationExecutor) ExpireBatch(ctx context.Context, certificateIDs []id.CertificateID) error {
	_, err := e.lifecycle.ScanAndExpire(ctx, certificateIDs)
	return err
}

func (e *operationExecutor) ApplyRenewal(ctx context.Context, certificateID id.CertificateID, newExpiry time.Time) error {
	return e.lifecycle.ApplyRenewal(ctx, certificateID, newExpiry)
}

// revocationAdapter exposes the token revocation list through the auth
// middleware's checker contract.
type revocationAdapter struct {
	trl revocation.TokenRevocationList
}

func (a *revocationAdapter) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return a.trl.IsRevoked(ctx, jti)
}
