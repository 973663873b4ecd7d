package audit

import (
	"time"

	id "laurel/pkg/domain"
)

// Category classifies audit events by the guarantee their consumers need.
type Category string

const (
	// CategoryGovernance covers approval workflow and policy events.
	CategoryGovernance Category = "governance"
	// CategoryLifecycle covers certificate state transitions.
	CategoryLifecycle Category = "lifecycle"
	// CategoryAccess covers role and permission changes.
	CategoryAccess Category = "access"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  Category
	Timestamp time.Time
	UserID    id.UserID // acting user
	Subject   string    // what the action concerns: certificate, course, or request ID
	Action    string
	Decision  string
	Reason    string
	RequestID string // correlation ID from HTTP request context
	ActorID   string // admin actor attribution for operational endpoints
}

type AuditEvent string

const (
	EventCertificateMinted      AuditEvent = "certificate_minted"
	EventCertificateBatchMinted AuditEvent = "certificate_batch_minted"
	EventCertificateRevoked     AuditEvent = "certificate_revoked"
	EventCertificateTransferred AuditEvent = "certificate_transferred"
	EventMetadataUpdated        AuditEvent = "certificate_metadata_updated"
	EventCertificateExpired     AuditEvent = "certificate_expired"
	EventCertificateRenewed     AuditEvent = "certificate_renewed"

	EventPrerequisiteSet     AuditEvent = "prerequisite_set"
	EventPrerequisiteRemoved AuditEvent = "prerequisite_removed"
	EventOverrideGranted     AuditEvent = "override_granted"
	EventOverrideRevoked     AuditEvent = "override_revoked"

	EventApprovalProposed      AuditEvent = "approval_proposed"
	EventApprovalSigned        AuditEvent = "approval_signed"
	EventApprovalQuorumReached AuditEvent = "approval_quorum_reached"
	EventApprovalExecuted      AuditEvent = "approval_executed"
	EventApprovalRejected      AuditEvent = "approval_rejected"
	EventApprovalExpired       AuditEvent = "approval_expired"

	EventExpiryNoticeSent AuditEvent = "expiry_notice_sent"
	EventRenewalRequested AuditEvent = "renewal_requested"
	EventRenewalApplied   AuditEvent = "renewal_applied"

	EventRoleAssigned AuditEvent = "role_assigned"
	EventRoleRevoked  AuditEvent = "role_revoked"

	EventPolicyActivated  AuditEvent = "policy_activated"
	EventPolicyRolledBack AuditEvent = "policy_rolled_back"
)

// Category returns the category an event belongs to. Unknown events fall back
// to CategoryLifecycle so governance consumers never receive miscategorized
// noise.
func (e AuditEvent) Category() Category {
	switch e {
	case EventApprovalProposed, EventApprovalSigned, EventApprovalQuorumReached,
		EventApprovalExecuted, EventApprovalRejected, EventApprovalExpired,
		EventPolicyActivated, EventPolicyRolledBack,
		EventPrerequisiteSet, EventPrerequisiteRemoved,
		EventOverrideGranted, EventOverrideRevoked:
		return CategoryGovernance
	case EventRoleAssigned, EventRoleRevoked:
		return CategoryAccess
	case EventCertificateMinted, EventCertificateBatchMinted, EventCertificateRevoked,
		EventCertificateTransferred, EventMetadataUpdated,
		EventCertificateExpired, EventCertificateRenewed,
		EventExpiryNoticeSent, EventRenewalRequested, EventRenewalApplied:
		return CategoryLifecycle
	default:
		return CategoryLifecycle
	}
}
