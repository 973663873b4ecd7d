package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accessmodels "laurel/internal/access/models"
	accessservice "laurel/internal/access/service"
	accessstore "laurel/internal/access/store"
	"laurel/internal/platform/locks"
	"laurel/internal/policy/models"
	"laurel/internal/policy/store"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	audit "laurel/pkg/platform/audit"
	auditmemory "laurel/pkg/platform/audit/store/memory"
	"laurel/pkg/platform/audit/publisher"
	"laurel/pkg/requestcontext"
)

type PolicyServiceSuite struct {
	suite.Suite
	svc        *Service
	versions   *store.InMemoryStore
	guard      *locks.MemoryGuard
	auditStore *auditmemory.InMemoryStore
	admin      id.UserID
	instructor id.UserID
	now        time.Time
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.now = time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	s.admin = id.UserID(uuid.New())
	s.instructor = id.UserID(uuid.New())

	authz := accessservice.New(accessstore.NewInMemoryStore())
	s.Require().NoError(authz.Bootstrap(context.Background(), s.admin))
	s.Require().NoError(authz.GrantRole(context.Background(), s.admin, s.instructor, accessmodels.RoleInstructor))

	s.versions = store.NewInMemoryStore()
	s.guard = locks.NewMemoryGuard()
	s.auditStore = auditmemory.NewInMemoryStore()

	s.svc = New(s.versions, authz, s.guard,
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func (s *PolicyServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *PolicyServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *PolicyServiceSuite) validSource() []byte {
	return []byte(fmt.Sprintf(`
multisig:
  revoke:
    threshold: 1
    signers: [%s]
    proposal_window: 72h
renewal:
  large_extension_threshold: 2160h
  max_extension: 8760h
`, uuid.NewString()))
}

func (s *PolicyServiceSuite) load() *models.Version {
	version, err := s.svc.Load(s.ctx(), s.admin, s.validSource())
	s.Require().NoError(err)
	return version
}

func (s *PolicyServiceSuite) hasEvent(action audit.AuditEvent, subject string) bool {
	for _, e := range s.auditStore.All() {
		if e.Action == string(action) && e.Subject == subject {
			return true
		}
	}
	return false
}

func (s *PolicyServiceSuite) TestLoadAssignsSequentialNumbers() {
	first := s.load()
	second := s.load()

	s.Equal(1, first.Number)
	s.Equal(2, second.Number)
	s.False(first.Active)
	s.False(second.Active)
	s.Equal(s.now, first.CreatedAt)

	_, err := s.svc.Active(s.ctx())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "loading must not activate")
}

func (s *PolicyServiceSuite) TestLoadRejectsInvalidDocument() {
	_, err := s.svc.Load(s.ctx(), s.admin, []byte("multisgi: {}\n"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	history, histErr := s.svc.History(s.ctx())
	s.Require().NoError(histErr)
	s.Empty(history, "a rejected document must not consume a version number")
}

func (s *PolicyServiceSuite) TestLoadRequiresPermission() {
	_, err := s.svc.Load(s.ctx(), s.instructor, s.validSource())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.svc.Load(s.ctx(), id.UserID{}, s.validSource())
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *PolicyServiceSuite) TestActivateLifecycle() {
	s.load()

	version, err := s.svc.Activate(s.ctx(), s.admin, 1)
	s.Require().NoError(err)
	s.True(version.Active)
	s.Require().NotNil(version.ActivatedAt)
	s.Equal(s.now, *version.ActivatedAt)

	active, err := s.svc.Active(s.ctx())
	s.Require().NoError(err)
	s.Equal(1, active.Number)

	s.True(s.hasEvent(audit.EventPolicyActivated, "1"))

	_, err = s.svc.Activate(s.ctx(), s.admin, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "re-activating the incumbent is a no-op worth surfacing")
}

func (s *PolicyServiceSuite) TestActivateUnknownVersion() {
	s.load()

	_, err := s.svc.Activate(s.ctx(), s.admin, 9)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PolicyServiceSuite) TestActivateRequiresPermission() {
	s.load()

	_, err := s.svc.Activate(s.ctx(), s.instructor, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *PolicyServiceSuite) TestRollbackRoundTrip() {
	s.load()
	s.load()

	_, err := s.svc.Activate(s.ctx(), s.admin, 1)
	s.Require().NoError(err)
	_, err = s.svc.Activate(s.ctxAt(s.now.Add(time.Hour)), s.admin, 2)
	s.Require().NoError(err)

	rolled, err := s.svc.Rollback(s.ctxAt(s.now.Add(2*time.Hour)), s.admin)
	s.Require().NoError(err)
	s.Equal(1, rolled.Number)

	active, err := s.svc.Active(s.ctx())
	s.Require().NoError(err)
	s.Equal(1, active.Number)
	s.True(s.hasEvent(audit.EventPolicyRolledBack, "1"))

	rolled, err = s.svc.Rollback(s.ctxAt(s.now.Add(3*time.Hour)), s.admin)
	s.Require().NoError(err)
	s.Equal(2, rolled.Number, "a second rollback undoes the first")
}

func (s *PolicyServiceSuite) TestRollbackWithoutPrevious() {
	s.load()
	_, err := s.svc.Activate(s.ctx(), s.admin, 1)
	s.Require().NoError(err)

	_, err = s.svc.Rollback(s.ctxAt(s.now.Add(time.Hour)), s.admin)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	active, activeErr := s.svc.Active(s.ctx())
	s.Require().NoError(activeErr)
	s.Equal(1, active.Number, "a failed rollback must not deactivate the incumbent")
}

func (s *PolicyServiceSuite) TestRollbackWithoutActive() {
	s.load()

	_, err := s.svc.Rollback(s.ctx(), s.admin)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PolicyServiceSuite) TestRollbackRequiresPermission() {
	_, err := s.svc.Rollback(s.ctx(), s.instructor)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *PolicyServiceSuite) TestBusyGuardRejectsChange() {
	release, err := s.guard.Acquire(context.Background(), "policy")
	s.Require().NoError(err)
	defer release()

	_, err = s.svc.Load(s.ctx(), s.admin, s.validSource())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *PolicyServiceSuite) TestSeedOnEmptyStore() {
	version, err := s.svc.Seed(s.ctx(), s.validSource())
	s.Require().NoError(err)
	s.Equal(1, version.Number)
	s.True(version.Active)

	active, err := s.svc.Active(s.ctx())
	s.Require().NoError(err)
	s.Equal(1, active.Number)

	s.Require().True(s.hasEvent(audit.EventPolicyActivated, "1"))
	for _, e := range s.auditStore.All() {
		if e.Action == string(audit.EventPolicyActivated) {
			s.True(e.UserID.IsNil(), "seeding acts as the system, not a user")
		}
	}
}

func (s *PolicyServiceSuite) TestSeedIsIdempotent() {
	first, err := s.svc.Seed(s.ctx(), s.validSource())
	s.Require().NoError(err)

	second, err := s.svc.Seed(s.ctxAt(s.now.Add(time.Hour)), s.validSource())
	s.Require().NoError(err)
	s.Equal(first.Number, second.Number)

	history, err := s.svc.History(s.ctx())
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *PolicyServiceSuite) TestSeedReactivatesLatestWhenNoneActive() {
	s.load()
	s.load()

	version, err := s.svc.Seed(s.ctx(), s.validSource())
	s.Require().NoError(err)
	s.Equal(2, version.Number)
	s.True(version.Active)

	history, err := s.svc.History(s.ctx())
	s.Require().NoError(err)
	s.Len(history, 2, "recovery must not mint a new version")
}

func (s *PolicyServiceSuite) TestSeedRejectsInvalidDocument() {
	_, err := s.svc.Seed(s.ctx(), []byte("{{nope"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PolicyServiceSuite) TestHistoryOrdersVersions() {
	s.load()
	s.load()
	s.load()

	history, err := s.svc.History(s.ctx())
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	for i, version := range history {
		s.Equal(i+1, version.Number)
	}
}
