package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"laurel/internal/access/models"
	"laurel/internal/access/token"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/platform/middleware/admin"
	"laurel/pkg/requestcontext"
)

// Service defines the role operations the handler consumes.
type Service interface {
	Bootstrap(ctx context.Context, adminUserID id.UserID) error
	GrantRole(ctx context.Context, actor, userID id.UserID, role models.Role) error
	RevokeRole(ctx context.Context, actor, userID id.UserID) error
	GetRole(ctx context.Context, actor, userID id.UserID) (*models.RoleAssignment, error)
	ListRoles(ctx context.Context, actor id.UserID) ([]*models.RoleAssignment, error)
}

// TokenIssuer mints and inspects bearer tokens.
type TokenIssuer interface {
	GenerateAccessTokenWithJTI(ctx context.Context, userID id.UserID) (string, string, error)
	ParseTokenSkipClaimsValidation(tokenString string) (*token.AccessTokenClaims, error)
}

// TokenRevoker denylists issued tokens by JTI.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type Handler struct {
	service Service
	issuer  TokenIssuer
	revoker TokenRevoker
	logger  *slog.Logger
	ttl     time.Duration
}

func New(service Service, issuer TokenIssuer, revoker TokenRevoker, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{service: service, issuer: issuer, revoker: revoker, ttl: tokenTTL, logger: logger}
}

// Register mounts the role administration endpoints. The router must already
// be guarded by the admin token middleware; the acting super admin is named
// by the X-Admin-Actor-ID header.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/access/bootstrap", h.HandleBootstrap)
	r.Post("/admin/access/roles", h.HandleGrantRole)
	r.Get("/admin/access/roles", h.HandleListRoles)
	r.Get("/admin/access/roles/{userID}", h.HandleGetRole)
	r.Delete("/admin/access/roles/{userID}", h.HandleRevokeRole)
	r.Post("/admin/access/tokens", h.HandleIssueToken)
	r.Post("/admin/access/tokens/revoke", h.HandleRevokeToken)
}

// actorFromContext resolves the acting admin's user ID from the actor header
// captured by the admin middleware.
func actorFromContext(ctx context.Context) (id.UserID, error) {
	actorID := admin.GetAdminActorID(ctx)
	if actorID == "" {
		return id.UserID{}, dErrors.New(dErrors.CodeBadRequest, "X-Admin-Actor-ID header required")
	}
	return id.ParseUserID(actorID)
}

// HandleBootstrap seeds the initial super admin. One-shot: repeated calls
// fail with a conflict.
func (h *Handler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BootstrapRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	adminUserID, err := id.ParseUserID(req.AdminUserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Bootstrap(ctx, adminUserID); err != nil {
		h.logger.ErrorContext(ctx, "bootstrap failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &StatusResponse{Status: "initialized"})
}

// HandleGrantRole assigns a role to a user.
func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := actorFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[GrantRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.GrantRole(ctx, actor, userID, models.Role(req.Role)); err != nil {
		h.logger.ErrorContext(ctx, "grant role failed", "error", err, "request_id", requestID, "user_id", req.UserID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &StatusResponse{Status: "granted"})
}

// HandleRevokeRole removes a user's role assignment.
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := actorFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RevokeRole(ctx, actor, userID); err != nil {
		h.logger.ErrorContext(ctx, "revoke role failed", "error", err, "request_id", requestID, "user_id", userID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "revoked"})
}

// HandleGetRole returns the explicit assignment for one user.
func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := actorFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assignment, err := h.service.GetRole(ctx, actor, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get role failed", "error", err, "request_id", requestID, "user_id", userID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRoleAssignmentResponse(assignment))
}

// HandleListRoles returns every explicit assignment.
func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := actorFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assignments, err := h.service.ListRoles(ctx, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "list roles failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*RoleAssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toRoleAssignmentResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, &RoleListResponse{Assignments: out, Count: len(out)})
}

// HandleIssueToken mints a bearer token for a user.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	accessToken, jti, err := h.issuer.GenerateAccessTokenWithJTI(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue token failed", "error", err, "request_id", requestID, "user_id", req.UserID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		JTI:         jti,
		ExpiresIn:   int64(h.ttl.Seconds()),
	})
}

// HandleRevokeToken denylists an issued token for its remaining lifetime.
// Accepts expired tokens: revoking one is a harmless no-op.
func (h *Handler) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claims, err := h.issuer.ParseTokenSkipClaimsValidation(req.Token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ttl := h.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := h.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		h.logger.ErrorContext(ctx, "revoke token failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "revoke token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "revoked"})
}
