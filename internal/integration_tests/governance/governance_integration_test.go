package governance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accesshandler "laurel/internal/access/handler"
	"laurel/internal/access/revocation"
	accessservice "laurel/internal/access/service"
	accessstore "laurel/internal/access/store"
	"laurel/internal/access/token"
	certhandler "laurel/internal/certificate/handler"
	certservice "laurel/internal/certificate/service"
	certstore "laurel/internal/certificate/store"
	expiryhandler "laurel/internal/expiry/handler"
	expiryservice "laurel/internal/expiry/service"
	expirystore "laurel/internal/expiry/store"
	mshandler "laurel/internal/multisig/handler"
	msmodels "laurel/internal/multisig/models"
	msservice "laurel/internal/multisig/service"
	msstore "laurel/internal/multisig/store"
	"laurel/internal/platform/locks"
	policyadapter "laurel/internal/policy/adapter"
	policyhandler "laurel/internal/policy/handler"
	policyservice "laurel/internal/policy/service"
	policystore "laurel/internal/policy/store"
	prereqhandler "laurel/internal/prereq/handler"
	prereqservice "laurel/internal/prereq/service"
	prereqstore "laurel/internal/prereq/store"
	id "laurel/pkg/domain"
	audit "laurel/pkg/platform/audit"
	"laurel/pkg/platform/audit/publisher"
	auditmemory "laurel/pkg/platform/audit/store/memory"
	"laurel/pkg/platform/middleware/admin"
	"laurel/pkg/platform/middleware/auth"
	"laurel/pkg/platform/middleware/request"
	"laurel/pkg/platform/middleware/requesttime"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// adminToken is the shared operational secret the admin route group expects.
const adminToken = "governance-integration-admin-token"

// The bridges below mirror the composition root's adapters so the suite
// exercises the same cross-context call paths as the production binary.

type eligibilityBridge struct {
	prereqs *prereqservice.Service
}

func (b *eligibilityBridge) CheckEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) (bool, []id.CourseID, error) {
	result, err := b.prereqs.CheckEligibility(ctx, studentID, courseID)
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

type executorBridge struct {
	certs     *certservice.Service
	lifecycle *expiryservice.Service
}

func (b *executorBridge) RevokeCertificate(ctx context.Context, actor id.UserID, certificateID id.CertificateID, reason string) error {
	return b.certs.Revoke(ctx, actor, certificateID, reason)
}

func (b *executorBridge) OverrideMetadata(ctx context.Context, actor id.UserID, certificateID id.CertificateID, newURI, reason string) error {
	return b.certs.UpdateMetadataURI(ctx, actor, certificateID, newURI, reason)
}

func (b *executorBridge) ExpireBatch(ctx context.Context, certificateIDs []id.CertificateID) error {
	_, err := b.lifecycle.ScanAndExpire(ctx, certificateIDs)
	return err
}

func (b *executorBridge) ApplyRenewal(ctx context.Context, certificateID id.CertificateID, newExpiry time.Time) error {
	return b.lifecycle.ApplyRenewal(ctx, certificateID, newExpiry)
}

type renewalRouterBridge struct {
	coordinator *msservice.Service
}

func (b *renewalRouterBridge) SubmitLargeRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (id.RequestID, error) {
	op, err := msmodels.NewLargeRenewalOperation(certificateID, newExpiry)
	if err != nil {
		return id.RequestID{}, err
	}
	req, err := b.coordinator.Submit(ctx, requester, op)
	if err != nil {
		return id.RequestID{}, err
	}
	return req.ID, nil
}

type revocationChecker struct {
	trl revocation.TokenRevocationList
}

func (c *revocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return c.trl.IsRevoked(ctx, jti)
}

// env is one fully wired deployment: real services behind a router built
// the same way as production, with stores exposed for direct assertions.
type env struct {
	router http.Handler

	certificates *certstore.InMemoryStore
	approvals    *msstore.InMemoryStore
	lifecycle    *expiryservice.Service
	auditLog     *auditmemory.InMemoryStore

	adminID      id.UserID
	registrarID  id.UserID
	instructorID id.UserID
	assistantID  id.UserID
	aliceID      id.UserID

	adminBearer      string
	registrarBearer  string
	instructorBearer string
	assistantBearer  string
	aliceBearer      string
}

// SetupSuite assembles the full governance stack and walks the same path an
// operator would on a fresh deploy: bootstrap the super admin, grant staff
// roles, mint bearer tokens, and activate a quorum policy.
func SetupSuite(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	auditStore := auditmemory.NewInMemoryStore()
	events := publisher.NewPublisher(auditStore)
	guard := locks.NewMemoryGuard()

	accessSvc := accessservice.New(accessstore.NewInMemoryStore(),
		accessservice.WithAuditPublisher(events))
	policySvc := policyservice.New(policystore.NewInMemoryStore(), accessSvc, guard,
		policyservice.WithAuditPublisher(events))

	certificates := certstore.NewInMemoryStore()
	prereqSvc := prereqservice.New(prereqstore.NewInMemoryStore(), certificates, accessSvc,
		prereqservice.WithAuditPublisher(events))
	certSvc := certservice.New(certificates, accessSvc, &eligibilityBridge{prereqs: prereqSvc}, guard,
		certservice.WithAuditPublisher(events))

	requests := msstore.NewInMemoryStore()
	executor := &executorBridge{}
	approvalSvc := msservice.New(requests, accessSvc,
		policyadapter.NewQuorumSource(policySvc), executor, guard,
		msservice.WithAuditPublisher(events))
	lifecycleSvc := expiryservice.New(certificates, expirystore.NewInMemoryStore(),
		&renewalRouterBridge{coordinator: approvalSvc}, policyadapter.NewRenewalSource(policySvc), guard,
		expiryservice.WithAuditPublisher(events))
	executor.certs = certSvc
	executor.lifecycle = lifecycleSvc

	tokens := token.NewService("governance-integration-signing-key", "laurel", "laurel", 15*time.Minute)
	trl := revocation.NewInMemoryTRL()
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	certificatesH := certhandler.New(certSvc, logger)
	coursesH := prereqhandler.New(prereqSvc, logger)
	approvalsH := mshandler.New(approvalSvc, logger)
	lifecycleH := expiryhandler.New(lifecycleSvc, logger)
	policiesH := policyhandler.New(policySvc, logger)
	accessH := accesshandler.New(accessSvc, tokens, trl, 15*time.Minute, logger)

	// The route groups mirror production: unauthenticated reads, bearer
	// governance writes, admin-token role administration.
	router := chi.NewRouter()
	router.Use(request.RequestID)
	router.Use(requesttime.Middleware)

	router.Group(func(r chi.Router) {
		certificatesH.RegisterPublic(r)
		coursesH.RegisterPublic(r)
		approvalsH.RegisterPublic(r)
		lifecycleH.RegisterPublic(r)
		policiesH.RegisterPublic(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(token.NewAdapter(tokens), &revocationChecker{trl: trl}, logger))
		r.Group(func(r chi.Router) {
			r.Use(request.ContentTypeJSON)
			certificatesH.Register(r)
			coursesH.Register(r)
			approvalsH.Register(r)
			lifecycleH.Register(r)
		})
		// Policy documents arrive as raw YAML, outside the JSON guard.
		policiesH.Register(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(string(adminHash), logger))
		r.Use(request.ContentTypeJSON)
		accessH.Register(r)
	})

	e := &env{
		router:       router,
		certificates: certificates,
		approvals:    requests,
		lifecycle:    lifecycleSvc,
		auditLog:     auditStore,
		adminID:      id.UserID(uuid.New()),
		registrarID:  id.UserID(uuid.New()),
		instructorID: id.UserID(uuid.New()),
		assistantID:  id.UserID(uuid.New()),
		aliceID:      id.UserID(uuid.New()),
	}
	e.bootstrapWorld(t)
	return e
}

func (e *env) bootstrapWorld(t *testing.T) {
	t.Helper()

	rec := e.adminDo(t, http.MethodPost, "/admin/access/bootstrap",
		accesshandler.BootstrapRequest{AdminUserID: e.adminID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for userID, role := range map[id.UserID]string{
		e.registrarID:  "course_admin",
		e.instructorID: "instructor",
		e.assistantID:  "instructor",
	} {
		rec = e.adminDo(t, http.MethodPost, "/admin/access/roles",
			accesshandler.GrantRoleRequest{UserID: userID.String(), Role: role})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	e.adminBearer = e.issueToken(t, e.adminID)
	e.registrarBearer = e.issueToken(t, e.registrarID)
	e.instructorBearer = e.issueToken(t, e.instructorID)
	e.assistantBearer = e.issueToken(t, e.assistantID)
	e.aliceBearer = e.issueToken(t, e.aliceID)

	e.loadPolicy(t)
}

// loadPolicy activates a quorum policy naming the registrar and both
// instructors as signers. metadata_override and bulk_expiry deliberately
// carry no rule so tests can drive the missing-rule failure.
func (e *env) loadPolicy(t *testing.T) {
	t.Helper()
	source := fmt.Sprintf(`multisig:
  revoke:
    threshold: 2
    signers: [%[1]s, %[2]s, %[3]s]
    proposal_window: 72h
  large_renewal:
    threshold: 2
    signers: [%[1]s, %[2]s, %[3]s]
    proposal_window: 72h
renewal:
  large_extension_threshold: 2160h
  max_extension: 8760h
limits:
  max_mint_batch: 50
  max_bulk_batch: 100
`, e.registrarID.String(), e.instructorID.String(), e.assistantID.String())

	req := httptest.NewRequest(http.MethodPost, "/policy/versions", strings.NewReader(source))
	req.Header.Set("Content-Type", "application/yaml")
	req.Header.Set("Authorization", "Bearer "+e.adminBearer)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var version policyhandler.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))

	rec = e.do(t, http.MethodPost,
		fmt.Sprintf("/policy/versions/%d/activate", version.Version), e.adminBearer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// do round-trips one JSON request through the router. An empty bearer sends
// no Authorization header.
func (e *env) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// adminDo round-trips one request through the admin route group, acting as
// the bootstrapped super admin.
func (e *env) adminDo(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", adminToken)
	req.Header.Set("X-Admin-Actor-ID", e.adminID.String())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) issueToken(t *testing.T, userID id.UserID) string {
	t.Helper()
	rec := e.adminDo(t, http.MethodPost, "/admin/access/tokens",
		accesshandler.IssueTokenRequest{UserID: userID.String()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp accesshandler.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// mint issues a certificate over HTTP and returns its identifier.
func (e *env) mint(t *testing.T, bearer, courseID string, studentID id.UserID, title string, expiresAt time.Time) string {
	t.Helper()
	certificateID := id.NewCertificateID().String()
	rec := e.do(t, http.MethodPost, "/certificates", bearer, certhandler.MintRequest{
		CertificateID: certificateID,
		CourseID:      courseID,
		StudentID:     studentID.String(),
		Title:         title,
		ExpiresAt:     expiresAt,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return certificateID
}

func TestCompleteGovernanceFlow(t *testing.T) {
	e := SetupSuite(t)
	ctx := context.Background()
	yearOut := time.Now().UTC().Add(365 * 24 * time.Hour)

	// Catalog: CS-201 requires CS-101.
	rec := e.do(t, http.MethodPost, "/courses/CS-201/prerequisites", e.registrarBearer,
		prereqhandler.RegisterPrerequisiteRequest{RequiredCourseID: "CS-101", Mandatory: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Alice holds nothing yet, so CS-201 is out of reach.
	rec = e.do(t, http.MethodGet, "/courses/CS-201/eligibility/"+e.aliceID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var eligibility prereqhandler.EligibilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eligibility))
	require.False(t, eligibility.Satisfied)
	require.Len(t, eligibility.Violations, 1)
	assert.Equal(t, "CS-101", eligibility.Violations[0].RequiredCourseID)

	// Minting CS-201 outright is refused for the same reason.
	blocked := certhandler.MintRequest{
		CertificateID: id.NewCertificateID().String(),
		CourseID:      "CS-201",
		StudentID:     e.aliceID.String(),
		Title:         "Data Structures",
		ExpiresAt:     yearOut,
	}
	rec = e.do(t, http.MethodPost, "/certificates", e.instructorBearer, blocked)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	// Completing CS-101 unlocks the chain.
	e.mint(t, e.instructorBearer, "CS-101", e.aliceID, "Intro to Computer Science", yearOut)
	rec = e.do(t, http.MethodPost, "/certificates", e.instructorBearer, blocked)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cs201 := blocked.CertificateID

	// Employers verify without credentials.
	rec = e.do(t, http.MethodGet, "/certificates/"+cs201+"/validity", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var validity certhandler.ValidityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validity))
	require.True(t, validity.Valid)

	// Revoking the certificate takes a two-signature quorum.
	rec = e.do(t, http.MethodPost, "/multisig/requests", e.registrarBearer, mshandler.ProposeRequest{
		Kind:          "revoke",
		CertificateID: cs201,
		Reason:        "plagiarised capstone project",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var proposal mshandler.RequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proposal))
	require.Equal(t, "pending", proposal.Status)
	require.Equal(t, 2, proposal.Threshold)
	require.Len(t, proposal.Signers, 3)

	// The first signature leaves the request pending.
	rec = e.do(t, http.MethodPost, "/multisig/requests/"+proposal.RequestID+"/signatures",
		e.instructorBearer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var signed mshandler.RequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	require.Equal(t, "pending", signed.Status)

	// The second reaches quorum.
	rec = e.do(t, http.MethodPost, "/multisig/requests/"+proposal.RequestID+"/signatures",
		e.assistantBearer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	require.Equal(t, "approved", signed.Status)
	assert.ElementsMatch(t,
		[]string{e.instructorID.String(), e.assistantID.String()}, signed.SignedBy)

	// Once the quorum stands, any authenticated caller may pull the trigger.
	rec = e.do(t, http.MethodPost, "/multisig/requests/"+proposal.RequestID+"/execute",
		e.aliceBearer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signed))
	require.Equal(t, "executed", signed.Status)

	// The certificate is now publicly invalid.
	rec = e.do(t, http.MethodGet, "/certificates/"+cs201+"/validity", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validity))
	require.False(t, validity.Valid)
	assert.Equal(t, "revoked", validity.Status)

	// The trail tells the whole story, newest decision last.
	rec = e.do(t, http.MethodGet, "/multisig/requests/"+proposal.RequestID+"/audit-trail", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var trail mshandler.AuditTrailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trail))
	actions := make([]string, 0, trail.Count)
	for _, entry := range trail.Entries {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []string{"proposed", "signed", "signed", "approved", "executed"}, actions)

	// The audit log recorded the execution against the request subject.
	events, err := e.auditLog.ListBySubject(ctx, proposal.RequestID)
	require.NoError(t, err)
	executed := false
	for _, event := range events {
		if event.Action == string(audit.EventApprovalExecuted) {
			executed = true
		}
	}
	assert.True(t, executed, "expected an approval_executed audit event")
}

func TestConcurrentMintSameCertificate(t *testing.T) {
	e := SetupSuite(t)

	certificateID := id.NewCertificateID().String()
	payload, err := json.Marshal(certhandler.MintRequest{
		CertificateID: certificateID,
		CourseID:      "PHYS-101",
		StudentID:     e.aliceID.String(),
		Title:         "Classical Mechanics",
		ExpiresAt:     time.Now().UTC().Add(365 * 24 * time.Hour),
	})
	require.NoError(t, err)

	const attempts = 8
	statuses := make(chan int, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodPost, "/certificates", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+e.instructorBearer)
			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, req)
			statuses <- rec.Code
		}()
	}

	created, conflicted := 0, 0
	for i := 0; i < attempts; i++ {
		switch code := <-statuses; code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	require.Equal(t, 1, created, "exactly one mint may win")
	require.Equal(t, attempts-1, conflicted)

	parsed, err := id.ParseCertificateID(certificateID)
	require.NoError(t, err)
	_, err = e.certificates.Find(context.Background(), parsed)
	require.NoError(t, err)
}
