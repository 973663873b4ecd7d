package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accessmodels "laurel/internal/access/models"
	accessservice "laurel/internal/access/service"
	accessstore "laurel/internal/access/store"
	"laurel/internal/platform/locks"
	"laurel/internal/policy/service"
	"laurel/internal/policy/store"
	id "laurel/pkg/domain"
	"laurel/pkg/requestcontext"
)

type PolicyHandlerSuite struct {
	suite.Suite
	router     http.Handler
	clock      time.Time
	admin      id.UserID
	instructor id.UserID
	signer     string
}

func TestPolicyHandlerSuite(t *testing.T) {
	suite.Run(t, new(PolicyHandlerSuite))
}

func (s *PolicyHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.clock = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.admin = id.UserID(uuid.New())
	s.instructor = id.UserID(uuid.New())
	s.signer = uuid.NewString()

	authz := accessservice.New(accessstore.NewInMemoryStore(), accessservice.WithLogger(logger))
	s.Require().NoError(authz.Bootstrap(context.Background(), s.admin))
	s.Require().NoError(authz.GrantRole(context.Background(), s.admin, s.instructor, accessmodels.RoleInstructor))

	svc := service.New(store.NewInMemoryStore(), authz, locks.NewMemoryGuard(),
		service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(s.testIdentity)
	h.Register(r)
	h.RegisterPublic(r)
	s.router = r
}

// testIdentity stands in for the bearer middleware: it resolves the caller
// from a test header and pins the request clock to the suite clock.
func (s *PolicyHandlerSuite) testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), s.clock)
		if raw := r.Header.Get("X-Test-User"); raw != "" {
			if userID, err := id.ParseUserID(raw); err == nil {
				ctx = requestcontext.WithUserID(ctx, userID)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *PolicyHandlerSuite) do(method, path, body string, caller id.UserID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if !caller.IsNil() {
		req.Header.Set("X-Test-User", caller.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *PolicyHandlerSuite) validSource() string {
	return fmt.Sprintf(`
multisig:
  revoke:
    threshold: 1
    signers: [%s]
    proposal_window: 72h
renewal:
  large_extension_threshold: 2160h
  max_extension: 8760h
limits:
  max_bulk_batch: 100
`, s.signer)
}

func (s *PolicyHandlerSuite) loadVersion() VersionResponse {
	rec := s.do(http.MethodPost, "/policy/versions", s.validSource(), s.admin)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp VersionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *PolicyHandlerSuite) activate(version int) VersionResponse {
	path := fmt.Sprintf("/policy/versions/%d/activate", version)
	rec := s.do(http.MethodPost, path, "", s.admin)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp VersionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *PolicyHandlerSuite) TestVersionLifecycle() {
	loaded := s.loadVersion()
	s.Equal(1, loaded.Version)
	s.False(loaded.Active)
	s.Len(loaded.Checksum, 64)
	s.Nil(loaded.ActivatedAt)

	rule, ok := loaded.Document.MultiSig["revoke"]
	s.Require().True(ok)
	s.Equal(1, rule.Threshold)
	s.Equal([]string{s.signer}, rule.Signers)
	s.Equal((72 * time.Hour).String(), rule.ProposalWindow)
	s.Equal((90 * 24 * time.Hour).String(), loaded.Document.Renewal.LargeExtensionThreshold)
	s.Equal(100, loaded.Document.Limits.MaxBulkBatch)

	activated := s.activate(1)
	s.True(activated.Active)
	s.Require().NotNil(activated.ActivatedAt)
	s.True(activated.ActivatedAt.Equal(s.clock))

	rec := s.do(http.MethodGet, "/policy/active", "", id.UserID{})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var active VersionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &active))
	s.Equal(1, active.Version)
	s.True(active.Active)
}

func (s *PolicyHandlerSuite) TestRollbackFlow() {
	s.loadVersion()
	s.loadVersion()
	s.activate(1)

	s.clock = s.clock.Add(time.Hour)
	s.activate(2)

	s.clock = s.clock.Add(time.Hour)
	rec := s.do(http.MethodPost, "/policy/rollback", "", s.admin)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var rolled VersionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &rolled))
	s.Equal(1, rolled.Version)
	s.True(rolled.Active)

	rec = s.do(http.MethodGet, "/policy/active", "", id.UserID{})
	s.Require().Equal(http.StatusOK, rec.Code)
	var active VersionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &active))
	s.Equal(1, active.Version)
}

func (s *PolicyHandlerSuite) TestLoadValidation() {
	s.Run("requires authentication", func() {
		rec := s.do(http.MethodPost, "/policy/versions", s.validSource(), id.UserID{})
		s.Equal(http.StatusUnauthorized, rec.Code, rec.Body.String())
	})

	s.Run("requires the manage permission", func() {
		rec := s.do(http.MethodPost, "/policy/versions", s.validSource(), s.instructor)
		s.Equal(http.StatusUnauthorized, rec.Code, rec.Body.String())
	})

	s.Run("rejects malformed yaml", func() {
		rec := s.do(http.MethodPost, "/policy/versions", "{{nope", s.admin)
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	s.Run("rejects unknown fields", func() {
		rec := s.do(http.MethodPost, "/policy/versions", "multisgi: {}\n", s.admin)
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	s.Run("rejects an oversized document", func() {
		rec := s.do(http.MethodPost, "/policy/versions", strings.Repeat("#", maxPolicyBytes+1), s.admin)
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func (s *PolicyHandlerSuite) TestActivateValidation() {
	s.loadVersion()

	s.Run("rejects a non-numeric version", func() {
		rec := s.do(http.MethodPost, "/policy/versions/one/activate", "", s.admin)
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	s.Run("rejects version zero", func() {
		rec := s.do(http.MethodPost, "/policy/versions/0/activate", "", s.admin)
		s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	s.Run("unknown version", func() {
		rec := s.do(http.MethodPost, "/policy/versions/9/activate", "", s.admin)
		s.Equal(http.StatusNotFound, rec.Code, rec.Body.String())
	})

	s.Run("already active", func() {
		s.activate(1)
		rec := s.do(http.MethodPost, "/policy/versions/1/activate", "", s.admin)
		s.Equal(http.StatusConflict, rec.Code, rec.Body.String())
	})
}

func (s *PolicyHandlerSuite) TestRollbackWithoutPrevious() {
	s.loadVersion()
	s.activate(1)

	rec := s.do(http.MethodPost, "/policy/rollback", "", s.admin)
	s.Equal(http.StatusNotFound, rec.Code, rec.Body.String())
}

func (s *PolicyHandlerSuite) TestActiveBeforeAnyActivation() {
	rec := s.do(http.MethodGet, "/policy/active", "", id.UserID{})
	s.Equal(http.StatusNotFound, rec.Code, rec.Body.String())
}

func (s *PolicyHandlerSuite) TestHistoryIsPublic() {
	s.loadVersion()
	s.loadVersion()
	s.activate(2)

	rec := s.do(http.MethodGet, "/policy/versions", "", id.UserID{})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var history HistoryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &history))
	s.Equal(2, history.Count)
	s.Equal(1, history.Versions[0].Version)
	s.False(history.Versions[0].Active)
	s.Equal(2, history.Versions[1].Version)
	s.True(history.Versions[1].Active)
}
