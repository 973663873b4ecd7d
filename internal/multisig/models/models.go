// Package models defines the multi-signature approval request and the
// closed set of operations a request may bind. Sensitive certificate
// operations (revocation, bulk expiry, metadata overrides, large renewals)
// never execute directly: they are proposed, collect a quorum of
// signatures, and only then run — exactly once.
package models

import (
	"fmt"
	"strings"
	"time"

	certmodels "laurel/internal/certificate/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// OperationKind names one of the guarded operation categories. The set is
// closed: execution dispatches exhaustively over it, so a new kind cannot
// be added without a handler.
type OperationKind string

const (
	KindRevoke           OperationKind = "revoke"
	KindBulkExpiry       OperationKind = "bulk_expiry"
	KindMetadataOverride OperationKind = "metadata_override"
	KindLargeRenewal     OperationKind = "large_renewal"
)

// ParseOperationKind validates a kind string from a trust boundary.
func ParseOperationKind(s string) (OperationKind, error) {
	kind := OperationKind(s)
	if !kind.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			"operation kind must be revoke, bulk_expiry, metadata_override, or large_renewal")
	}
	return kind, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k OperationKind) IsValid() bool {
	switch k {
	case KindRevoke, KindBulkExpiry, KindMetadataOverride, KindLargeRenewal:
		return true
	}
	return false
}

// MaxReasonLength bounds the free-text justification on proposals.
const MaxReasonLength = 500

// RevokePayload terminally revokes one certificate.
type RevokePayload struct {
	CertificateID id.CertificateID `json:"certificate_id"`
	Reason        string           `json:"reason"`
}

func (p *RevokePayload) validate() error {
	if p.CertificateID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	return validateReason(p.Reason)
}

// BulkExpiryPayload sweeps a batch of certificates past their expiry.
// Duplicate identifiers are tolerated: the sweep is idempotent, so a
// repeated entry counts as skipped rather than expiring twice.
type BulkExpiryPayload struct {
	CertificateIDs []id.CertificateID `json:"certificate_ids"`
}

func (p *BulkExpiryPayload) validate() error {
	if len(p.CertificateIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "certificate batch is empty")
	}
	for i, certID := range p.CertificateIDs {
		if certID.IsZero() {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("batch item %d: certificate ID is required", i))
		}
	}
	return nil
}

// MetadataOverridePayload replaces a certificate's metadata URI.
type MetadataOverridePayload struct {
	CertificateID  id.CertificateID `json:"certificate_id"`
	NewMetadataURI string           `json:"new_metadata_uri"`
	Reason         string           `json:"reason"`
}

func (p *MetadataOverridePayload) validate() error {
	if p.CertificateID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	if p.NewMetadataURI == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata URI is required")
	}
	if err := certmodels.ValidateMetadataURI(p.NewMetadataURI); err != nil {
		return err
	}
	return validateReason(p.Reason)
}

// LargeRenewalPayload extends a certificate's expiry beyond the policy
// threshold for direct renewals. Whether the extension actually applies is
// decided at execution time against the certificate's state then.
type LargeRenewalPayload struct {
	CertificateID id.CertificateID `json:"certificate_id"`
	NewExpiresAt  time.Time        `json:"new_expires_at"`
}

func (p *LargeRenewalPayload) validate() error {
	if p.CertificateID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "certificate ID is required")
	}
	if p.NewExpiresAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "new expiry date is required")
	}
	return nil
}

func validateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > MaxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason exceeds maximum length")
	}
	return nil
}

// Operation is the action a request binds: a kind plus exactly one payload
// matching it. Construct through the New*Operation functions so the payload
// is validated up front.
type Operation struct {
	Kind             OperationKind            `json:"kind"`
	Revoke           *RevokePayload           `json:"revoke,omitempty"`
	BulkExpiry       *BulkExpiryPayload       `json:"bulk_expiry,omitempty"`
	MetadataOverride *MetadataOverridePayload `json:"metadata_override,omitempty"`
	LargeRenewal     *LargeRenewalPayload     `json:"large_renewal,omitempty"`
}

func NewRevokeOperation(certificateID id.CertificateID, reason string) (Operation, error) {
	op := Operation{
		Kind:   KindRevoke,
		Revoke: &RevokePayload{CertificateID: certificateID, Reason: strings.TrimSpace(reason)},
	}
	return op, op.Validate()
}

func NewBulkExpiryOperation(certificateIDs []id.CertificateID) (Operation, error) {
	batch := make([]id.CertificateID, len(certificateIDs))
	copy(batch, certificateIDs)
	op := Operation{
		Kind:       KindBulkExpiry,
		BulkExpiry: &BulkExpiryPayload{CertificateIDs: batch},
	}
	return op, op.Validate()
}

func NewMetadataOverrideOperation(certificateID id.CertificateID, newURI, reason string) (Operation, error) {
	op := Operation{
		Kind: KindMetadataOverride,
		MetadataOverride: &MetadataOverridePayload{
			CertificateID:  certificateID,
			NewMetadataURI: strings.TrimSpace(newURI),
			Reason:         strings.TrimSpace(reason),
		},
	}
	return op, op.Validate()
}

func NewLargeRenewalOperation(certificateID id.CertificateID, newExpiresAt time.Time) (Operation, error) {
	op := Operation{
		Kind:         KindLargeRenewal,
		LargeRenewal: &LargeRenewalPayload{CertificateID: certificateID, NewExpiresAt: newExpiresAt},
	}
	return op, op.Validate()
}

// Validate checks that the operation carries exactly the payload its kind
// names and that the payload itself is well-formed.
func (o Operation) Validate() error {
	if !o.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown operation kind")
	}
	payloads := 0
	for _, set := range []bool{o.Revoke != nil, o.BulkExpiry != nil, o.MetadataOverride != nil, o.LargeRenewal != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return dErrors.New(dErrors.CodeValidation, "operation must carry exactly one payload")
	}
	switch o.Kind {
	case KindRevoke:
		if o.Revoke == nil {
			return payloadMismatch(o.Kind)
		}
		return o.Revoke.validate()
	case KindBulkExpiry:
		if o.BulkExpiry == nil {
			return payloadMismatch(o.Kind)
		}
		return o.BulkExpiry.validate()
	case KindMetadataOverride:
		if o.MetadataOverride == nil {
			return payloadMismatch(o.Kind)
		}
		return o.MetadataOverride.validate()
	case KindLargeRenewal:
		if o.LargeRenewal == nil {
			return payloadMismatch(o.Kind)
		}
		return o.LargeRenewal.validate()
	}
	return nil
}

func payloadMismatch(kind OperationKind) error {
	return dErrors.New(dErrors.CodeValidation, "operation payload does not match kind "+string(kind))
}

// Targets returns the certificate identifiers the operation touches, for
// audit attribution and logging.
func (o Operation) Targets() []id.CertificateID {
	switch o.Kind {
	case KindRevoke:
		if o.Revoke != nil {
			return []id.CertificateID{o.Revoke.CertificateID}
		}
	case KindBulkExpiry:
		if o.BulkExpiry != nil {
			out := make([]id.CertificateID, len(o.BulkExpiry.CertificateIDs))
			copy(out, o.BulkExpiry.CertificateIDs)
			return out
		}
	case KindMetadataOverride:
		if o.MetadataOverride != nil {
			return []id.CertificateID{o.MetadataOverride.CertificateID}
		}
	case KindLargeRenewal:
		if o.LargeRenewal != nil {
			return []id.CertificateID{o.LargeRenewal.CertificateID}
		}
	}
	return nil
}

// Clone deep-copies the operation so stored requests never share payloads
// with callers.
func (o Operation) Clone() Operation {
	cp := o
	if o.Revoke != nil {
		p := *o.Revoke
		cp.Revoke = &p
	}
	if o.BulkExpiry != nil {
		p := BulkExpiryPayload{CertificateIDs: make([]id.CertificateID, len(o.BulkExpiry.CertificateIDs))}
		copy(p.CertificateIDs, o.BulkExpiry.CertificateIDs)
		cp.BulkExpiry = &p
	}
	if o.MetadataOverride != nil {
		p := *o.MetadataOverride
		cp.MetadataOverride = &p
	}
	if o.LargeRenewal != nil {
		p := *o.LargeRenewal
		cp.LargeRenewal = &p
	}
	return cp
}

// QuorumConfig is the approval rule for one operation category: how many
// signatures, from which signer set, within what proposal window. The
// active policy supplies it at proposal time and the request copies it, so
// a later policy change never alters an in-flight request.
type QuorumConfig struct {
	Threshold      int
	Signers        []id.UserID
	ProposalWindow time.Duration
}

func (c QuorumConfig) Validate() error {
	if c.Threshold < 1 {
		return dErrors.New(dErrors.CodeValidation, "threshold must be at least 1")
	}
	if c.Threshold > len(c.Signers) {
		return dErrors.New(dErrors.CodeValidation, "threshold exceeds the signer set size")
	}
	seen := make(map[id.UserID]struct{}, len(c.Signers))
	for _, signer := range c.Signers {
		if signer.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "signer set contains an empty ID")
		}
		if _, dup := seen[signer]; dup {
			return dErrors.New(dErrors.CodeValidation, "signer set contains duplicates")
		}
		seen[signer] = struct{}{}
	}
	if c.ProposalWindow <= 0 {
		return dErrors.New(dErrors.CodeValidation, "proposal window must be positive")
	}
	return nil
}

// RequestStatus is the lifecycle state of an approval request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusExecuted RequestStatus = "executed"
	StatusRejected RequestStatus = "rejected"
	StatusExpired  RequestStatus = "expired"
)

// IsValid checks if the status is one of the supported enum values.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusExecuted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transition.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusExecuted || s == StatusRejected || s == StatusExpired
}

// Request is one approval workflow instance.
//
// # Invariants
//
//   - Transitions are strictly forward: Pending → Approved → Executed, or
//     Pending → Rejected / Expired. Nothing leaves a terminal status.
//   - A signer appears in SignedBy at most once; only membership and count
//     matter, never arrival order.
//   - Threshold and Signers are frozen at proposal and never change.
//   - The bound operation runs exactly once, and only from Approved.
type Request struct {
	ID        id.RequestID
	Operation Operation
	Proposer  id.UserID
	Threshold int
	Signers   []id.UserID
	SignedBy  []id.UserID
	Status    RequestStatus
	CreatedAt time.Time
	Deadline  time.Time
	UpdatedAt time.Time
}

// NewRequest opens a Pending request binding the operation under the given
// quorum rule. The rule is copied; the deadline is fixed here and never
// moves.
func NewRequest(op Operation, proposer id.UserID, rule QuorumConfig, now time.Time) (*Request, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if proposer.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "proposer ID is required")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	signers := make([]id.UserID, len(rule.Signers))
	copy(signers, rule.Signers)
	return &Request{
		ID:        id.NewRequestID(),
		Operation: op.Clone(),
		Proposer:  proposer,
		Threshold: rule.Threshold,
		Signers:   signers,
		SignedBy:  []id.UserID{},
		Status:    StatusPending,
		CreatedAt: now,
		Deadline:  now.Add(rule.ProposalWindow),
		UpdatedAt: now,
	}, nil
}

// IsEligibleSigner reports membership in the frozen signer set.
func (r *Request) IsEligibleSigner(userID id.UserID) bool {
	for _, signer := range r.Signers {
		if signer == userID {
			return true
		}
	}
	return false
}

// HasSigned reports whether the signer already appears in the signed set.
func (r *Request) HasSigned(userID id.UserID) bool {
	for _, signer := range r.SignedBy {
		if signer == userID {
			return true
		}
	}
	return false
}

// ExpireIfDue lazily transitions a Pending request past its deadline to
// Expired. It reports whether the transition happened so callers know to
// persist and record it.
func (r *Request) ExpireIfDue(now time.Time) bool {
	if r.Status != StatusPending || !now.After(r.Deadline) {
		return false
	}
	r.Status = StatusExpired
	r.UpdatedAt = now
	return true
}

// Sign records one signature. Reaching the threshold transitions the
// request to Approved in the same step.
func (r *Request) Sign(signer id.UserID, now time.Time) error {
	if r.ExpireIfDue(now) {
		return dErrors.New(dErrors.CodeRequestExpired, "request deadline has passed")
	}
	switch r.Status {
	case StatusPending:
	case StatusExpired:
		return dErrors.New(dErrors.CodeRequestExpired, "request has expired")
	default:
		return dErrors.New(dErrors.CodeRequestNotPending, "request is "+string(r.Status))
	}
	if !r.IsEligibleSigner(signer) {
		return dErrors.New(dErrors.CodeNotAuthorizedSigner, "signer is not in the eligible signer set")
	}
	if r.HasSigned(signer) {
		return dErrors.New(dErrors.CodeAlreadySigned, "signer has already signed this request")
	}
	r.SignedBy = append(r.SignedBy, signer)
	if len(r.SignedBy) >= r.Threshold {
		r.Status = StatusApproved
	}
	r.UpdatedAt = now
	return nil
}

// EnsureExecutable checks that the bound operation may run now. A Pending
// request past its deadline transitions to Expired as a side effect; an
// Approved request past its deadline fails without a transition, since only
// Pending requests expire.
func (r *Request) EnsureExecutable(now time.Time) error {
	if r.ExpireIfDue(now) {
		return dErrors.New(dErrors.CodeRequestExpired, "request deadline has passed")
	}
	switch r.Status {
	case StatusApproved:
	case StatusPending:
		return dErrors.New(dErrors.CodeInsufficientSignatures,
			fmt.Sprintf("request has %d of %d required signatures", len(r.SignedBy), r.Threshold))
	case StatusExecuted:
		return dErrors.New(dErrors.CodeAlreadyExecuted, "request has already been executed")
	case StatusExpired:
		return dErrors.New(dErrors.CodeRequestExpired, "request has expired")
	default:
		return dErrors.New(dErrors.CodeRequestNotPending, "request is "+string(r.Status))
	}
	if now.After(r.Deadline) {
		return dErrors.New(dErrors.CodeRequestExpired, "approval deadline has passed")
	}
	return nil
}

// MarkExecuted transitions an Approved request to Executed. Callers persist
// this only after the bound operation succeeded.
func (r *Request) MarkExecuted(now time.Time) error {
	if r.Status != StatusApproved {
		return dErrors.New(dErrors.CodeInvariantViolation, "only approved requests execute")
	}
	r.Status = StatusExecuted
	r.UpdatedAt = now
	return nil
}

// Reject closes a Pending request without running its operation.
func (r *Request) Reject(now time.Time) error {
	if r.ExpireIfDue(now) {
		return dErrors.New(dErrors.CodeRequestExpired, "request deadline has passed")
	}
	switch r.Status {
	case StatusPending:
	case StatusExpired:
		return dErrors.New(dErrors.CodeRequestExpired, "request has expired")
	default:
		return dErrors.New(dErrors.CodeRequestNotPending, "request is "+string(r.Status))
	}
	r.Status = StatusRejected
	r.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so stores can hand out requests without
// sharing slices or payloads.
func (r *Request) Clone() *Request {
	cp := *r
	cp.Operation = r.Operation.Clone()
	cp.Signers = make([]id.UserID, len(r.Signers))
	copy(cp.Signers, r.Signers)
	cp.SignedBy = make([]id.UserID, len(r.SignedBy))
	copy(cp.SignedBy, r.SignedBy)
	return &cp
}

// AuditAction names one event in a request's immutable audit trail.
type AuditAction string

const (
	ActionProposed AuditAction = "proposed"
	ActionSigned   AuditAction = "signed"
	ActionApproved AuditAction = "approved"
	ActionExecuted AuditAction = "executed"
	ActionRejected AuditAction = "rejected"
	ActionExpired  AuditAction = "expired"
)

// AuditEntry is one immutable record in a request's audit trail. Entries
// are appended on every propose, sign, approve, execute, reject, and
// expire event and never mutated or removed.
type AuditEntry struct {
	RequestID   id.RequestID
	Actor       id.UserID
	Action      AuditAction
	Note        string
	Fingerprint string
	Timestamp   time.Time
}
