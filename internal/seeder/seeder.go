// Package seeder populates a development instance with demo governance data:
// roles, a policy with real quorum rules, a small course catalog, certificates
// in assorted lifecycle states, and an in-flight approval request. It drives
// the real services so everything it creates passed the same validation and
// left the same audit trail as production traffic would.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accessmodels "laurel/internal/access/models"
	certmodels "laurel/internal/certificate/models"
	expirymodels "laurel/internal/expiry/models"
	msmodels "laurel/internal/multisig/models"
	policymodels "laurel/internal/policy/models"
	prereqmodels "laurel/internal/prereq/models"
	id "laurel/pkg/domain"
)

// Stable demo identities, so tokens minted with tokengen target known users
// across restarts.
var (
	AdminID      = id.UserID(uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	RegistrarID  = id.UserID(uuid.MustParse("22222222-2222-4222-8222-222222222222"))
	InstructorID = id.UserID(uuid.MustParse("33333333-3333-4333-8333-333333333333"))
	AssistantID  = id.UserID(uuid.MustParse("44444444-4444-4444-8444-444444444444"))
	AliceID      = id.UserID(uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"))
	BobID        = id.UserID(uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"))
	CarolID      = id.UserID(uuid.MustParse("cccccccc-cccc-4ccc-8ccc-cccccccccccc"))
	DaveID       = id.UserID(uuid.MustParse("dddddddd-dddd-4ddd-8ddd-dddddddddddd"))
)

// AccessService grants the demo cast their roles.
type AccessService interface {
	Bootstrap(ctx context.Context, adminUserID id.UserID) error
	GrantRole(ctx context.Context, actor, userID id.UserID, role accessmodels.Role) error
}

// PolicyService installs a governance policy whose quorum rules name the
// demo signers.
type PolicyService interface {
	Load(ctx context.Context, caller id.UserID, source []byte) (*policymodels.Version, error)
	Activate(ctx context.Context, caller id.UserID, number int) (*policymodels.Version, error)
}

// CourseService builds the prerequisite graph.
type CourseService interface {
	RegisterPrerequisite(ctx context.Context, caller id.UserID, courseID, requiredID id.CourseID, mandatory bool) (*prereqmodels.Prerequisite, error)
	GrantOverride(ctx context.Context, caller, studentID id.UserID, courseID id.CourseID, reason string, expiresAt *time.Time) (*prereqmodels.Override, error)
}

// CertificateService mints the demo certificates.
type CertificateService interface {
	Mint(ctx context.Context, issuer id.UserID, params certmodels.MintParams) (*certmodels.Certificate, error)
}

// ApprovalService leaves one revocation mid-quorum.
type ApprovalService interface {
	Propose(ctx context.Context, proposer id.UserID, op msmodels.Operation) (*msmodels.Request, error)
	Sign(ctx context.Context, signer id.UserID, requestID id.RequestID) (*msmodels.Request, error)
}

// LifecycleService records one applied renewal.
type LifecycleService interface {
	RequestRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (*expirymodels.RenewalRequest, error)
}

// Services bundles the service slices the seeder drives.
type Services struct {
	Access    AccessService
	Policy    PolicyService
	Courses   CourseService
	Certs     CertificateService
	Approvals ApprovalService
	Lifecycle LifecycleService
}

// Seeder populates a development instance with demo data.
type Seeder struct {
	svcs   Services
	logger *slog.Logger
}

// New creates a new seeder.
func New(svcs Services, logger *slog.Logger) *Seeder {
	return &Seeder{svcs: svcs, logger: logger}
}

// SeedAll populates everything. It is meant for the in-memory development
// server: run against persistent storage it would collide with its previous
// self on the second start.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := s.seedPolicy(ctx); err != nil {
		return fmt.Errorf("seed policy: %w", err)
	}
	if err := s.seedCatalog(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	certs, err := s.seedCertificates(ctx)
	if err != nil {
		return fmt.Errorf("seed certificates: %w", err)
	}
	if err := s.seedRenewal(ctx, certs); err != nil {
		return fmt.Errorf("seed renewal: %w", err)
	}
	pending, err := s.seedApproval(ctx, certs)
	if err != nil {
		return fmt.Errorf("seed approval: %w", err)
	}

	s.logger.Info("demo data seeded",
		"super_admin", AdminID.String(),
		"registrar", RegistrarID.String(),
		"instructor", InstructorID.String(),
		"certificates", len(certs),
		"pending_request", pending.String(),
	)
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	if err := s.svcs.Access.Bootstrap(ctx, AdminID); err != nil {
		return err
	}

	grants := []struct {
		user id.UserID
		role accessmodels.Role
	}{
		{RegistrarID, accessmodels.RoleCourseAdmin},
		{InstructorID, accessmodels.RoleInstructor},
		{AssistantID, accessmodels.RoleInstructor},
		{AliceID, accessmodels.RoleStudent},
		{BobID, accessmodels.RoleStudent},
		{CarolID, accessmodels.RoleStudent},
		{DaveID, accessmodels.RoleStudent},
	}
	for _, g := range grants {
		if err := s.svcs.Access.GrantRole(ctx, AdminID, g.user, g.role); err != nil {
			return err
		}
	}
	return nil
}

// seedPolicy replaces the built-in renewal-only policy with one that carries
// quorum rules, so the approval flows below (and anything a developer tries
// by hand) have signers to work with.
func (s *Seeder) seedPolicy(ctx context.Context) error {
	signers := fmt.Sprintf("[%s, %s, %s]", RegistrarID, InstructorID, AssistantID)
	source := fmt.Sprintf(`multisig:
  revoke:
    threshold: 2
    signers: %[1]s
    proposal_window: 72h
  metadata_override:
    threshold: 2
    signers: %[1]s
    proposal_window: 72h
  bulk_expiry:
    threshold: 3
    signers: %[1]s
    proposal_window: 168h
  large_renewal:
    threshold: 2
    signers: %[1]s
    proposal_window: 72h
renewal:
  large_extension_threshold: 2160h
  max_extension: 8760h
limits:
  max_mint_batch: 50
  max_bulk_batch: 100
  max_graph_nodes: 512
  max_traversal_depth: 64
`, signers)

	version, err := s.svcs.Policy.Load(ctx, AdminID, []byte(source))
	if err != nil {
		return err
	}
	_, err = s.svcs.Policy.Activate(ctx, AdminID, version.Number)
	return err
}

func (s *Seeder) seedCatalog(ctx context.Context) error {
	links := []struct {
		course, requires id.CourseID
		mandatory        bool
	}{
		{"CS-201", "CS-101", true},
		{"CS-201", "MATH-101", true},
		{"CS-301", "CS-201", true},
		{"CS-301", "STAT-200", false},
		{"ML-401", "CS-301", true},
		{"ML-401", "MATH-201", true},
	}
	for _, l := range links {
		if _, err := s.svcs.Courses.RegisterPrerequisite(ctx, RegistrarID, l.course, l.requires, l.mandatory); err != nil {
			return err
		}
	}

	// Carol transferred in; her prior coursework covers the math requirement.
	_, err := s.svcs.Courses.GrantOverride(ctx, RegistrarID, CarolID, "MATH-101",
		"transfer credit from prior institution", nil)
	return err
}

// seedCertificates mints foundations first, then the advanced courses that
// depend on them, leaving a spread of expiry dates: two years out for most,
// ten days out for Bob's CS-101 so the notice scheduler has work on the
// first sweep.
func (s *Seeder) seedCertificates(ctx context.Context) (map[string]id.CertificateID, error) {
	now := time.Now()

	mints := []struct {
		name    string
		student id.UserID
		course  id.CourseID
		title   string
		expires time.Time
	}{
		{"alice-cs101", AliceID, "CS-101", "Introduction to Computer Science", now.AddDate(2, 0, 0)},
		{"alice-math101", AliceID, "MATH-101", "Calculus I", now.AddDate(2, 0, 0)},
		{"bob-cs101", BobID, "CS-101", "Introduction to Computer Science", now.Add(10 * 24 * time.Hour)},
		{"bob-math101", BobID, "MATH-101", "Calculus I", now.Add(20 * 24 * time.Hour)},
		{"carol-cs101", CarolID, "CS-101", "Introduction to Computer Science", now.AddDate(2, 0, 0)},
		{"dave-cs101", DaveID, "CS-101", "Introduction to Computer Science", now.AddDate(1, 0, 0)},
		{"alice-cs201", AliceID, "CS-201", "Data Structures and Algorithms", now.AddDate(1, 0, 0)},
		{"carol-cs201", CarolID, "CS-201", "Data Structures and Algorithms", now.AddDate(1, 0, 0)},
	}

	certs := make(map[string]id.CertificateID, len(mints))
	for _, m := range mints {
		cert, err := s.svcs.Certs.Mint(ctx, InstructorID, certmodels.MintParams{
			CertificateID: id.NewCertificateID(),
			CourseID:      m.course,
			StudentID:     m.student,
			Title:         m.title,
			ExpiresAt:     m.expires,
		})
		if err != nil {
			return nil, fmt.Errorf("mint %s: %w", m.name, err)
		}
		certs[m.name] = cert.ID
	}
	return certs, nil
}

// seedRenewal applies a small renewal to Bob's math certificate: a sixty-day
// extension stays under the large-extension threshold, so it applies
// immediately and shows up in the renewal history.
func (s *Seeder) seedRenewal(ctx context.Context, certs map[string]id.CertificateID) error {
	_, err := s.svcs.Lifecycle.RequestRenewal(ctx, BobID, certs["bob-math101"],
		time.Now().Add(80*24*time.Hour))
	return err
}

// seedApproval opens a revocation against Dave's certificate and collects one
// of the two required signatures, leaving the request pending for a developer
// to sign, reject, or let lapse.
func (s *Seeder) seedApproval(ctx context.Context, certs map[string]id.CertificateID) (id.RequestID, error) {
	op, err := msmodels.NewRevokeOperation(certs["dave-cs101"], "academic integrity investigation")
	if err != nil {
		return id.RequestID{}, err
	}
	req, err := s.svcs.Approvals.Propose(ctx, RegistrarID, op)
	if err != nil {
		return id.RequestID{}, err
	}
	if _, err := s.svcs.Approvals.Sign(ctx, InstructorID, req.ID); err != nil {
		return id.RequestID{}, err
	}
	return req.ID, nil
}
