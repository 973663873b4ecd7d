// Package handler exposes the governance policy over HTTP. Loading and
// switching versions is an administrative action behind the bearer
// middleware; the active document and the version history are public
// record, like the rest of the governance trail.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"laurel/internal/policy/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/requestcontext"
)

// maxPolicyBytes bounds the YAML document size on load.
const maxPolicyBytes = 1 << 20

// Service defines the policy operations the handler consumes.
type Service interface {
	Load(ctx context.Context, caller id.UserID, source []byte) (*models.Version, error)
	Activate(ctx context.Context, caller id.UserID, number int) (*models.Version, error)
	Rollback(ctx context.Context, caller id.UserID) (*models.Version, error)
	Active(ctx context.Context) (*models.Version, error)
	History(ctx context.Context) ([]*models.Version, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the administrative policy endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policy/versions", h.HandleLoad)
	r.Post("/policy/versions/{version}/activate", h.HandleActivate)
	r.Post("/policy/rollback", h.HandleRollback)
}

// RegisterPublic mounts the read-only endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/policy/active", h.HandleActive)
	r.Get("/policy/versions", h.HandleHistory)
}

func callerFromContext(ctx context.Context) (id.UserID, error) {
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func versionFromPath(r *http.Request) (int, error) {
	number, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || number < 1 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid policy version")
	}
	return number, nil
}

// HandleLoad stores a new policy version from the raw YAML body.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPolicyBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "read policy document"))
		return
	}

	version, err := h.service.Load(ctx, caller, source)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy load failed",
			"error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVersionResponse(version))
}

// HandleActivate makes the named version the active policy.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	number, err := versionFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.service.Activate(ctx, caller, number)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy activation failed",
			"error", err, "request_id", requestID, "policy_version", number)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

// HandleRollback reactivates the previously active version.
func (h *Handler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.service.Rollback(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "policy rollback failed",
			"error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

// HandleActive returns the active policy version.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	version, err := h.service.Active(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVersionResponse(version))
}

// HandleHistory returns every loaded version, oldest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	versions, err := h.service.History(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(versions))
}
