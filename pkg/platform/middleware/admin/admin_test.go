package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddlewareSuite tests the admin authentication middleware.
//
// Justification: Security-critical authentication middleware.
// The invariant "wrong token never reaches handler" must be preserved.
type AdminMiddlewareSuite struct {
	suite.Suite
	logger    *slog.Logger
	tokenHash string
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupSuite() {
	// bcrypt.MinCost keeps the suite fast; production uses DefaultCost.
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-admin-token"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.tokenHash = string(hash)
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.Default()
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("correct token passes to next handler", func() {
		handlerCalled := false

		handler := RequireAdminToken(s.tokenHash, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/test", nil)
		req.Header.Set("X-Admin-Token", "secret-admin-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		s.True(handlerCalled, "next handler should be called")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("wrong token returns 401 and blocks handler", func() {
		handlerCalled := false

		handler := RequireAdminToken(s.tokenHash, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/test", nil)
		req.Header.Set("X-Admin-Token", "wrong-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		s.False(handlerCalled, "next handler should NOT be called")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "unauthorized")
	})

	s.Run("missing token returns 401", func() {
		handlerCalled := false

		handler := RequireAdminToken(s.tokenHash, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/test", nil)
		// No X-Admin-Token header
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		s.False(handlerCalled, "next handler should NOT be called")
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *AdminMiddlewareSuite) TestActorAttribution() {
	s.Run("captures actor ID header", func() {
		var actorID string

		handler := RequireAdminToken(s.tokenHash, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actorID = GetAdminActorID(r.Context())
				w.WriteHeader(http.StatusOK)
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/test", nil)
		req.Header.Set("X-Admin-Token", "secret-admin-token")
		req.Header.Set("X-Admin-Actor-ID", "ops-alice")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		s.Equal("ops-alice", actorID)
	})

	s.Run("empty actor ID when header absent", func() {
		var actorID string

		handler := RequireAdminToken(s.tokenHash, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				actorID = GetAdminActorID(r.Context())
				w.WriteHeader(http.StatusOK)
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/admin/test", nil)
		req.Header.Set("X-Admin-Token", "secret-admin-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		s.Empty(actorID)
	})
}
