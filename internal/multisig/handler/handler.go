package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"laurel/internal/multisig/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/requestcontext"
)

// Service defines the approval workflow operations the handler consumes.
type Service interface {
	Propose(ctx context.Context, proposer id.UserID, op models.Operation) (*models.Request, error)
	Sign(ctx context.Context, signer id.UserID, requestID id.RequestID) (*models.Request, error)
	Execute(ctx context.Context, executor id.UserID, requestID id.RequestID) (*models.Request, error)
	Reject(ctx context.Context, caller id.UserID, requestID id.RequestID, reason string) (*models.Request, error)
	ExpireStale(ctx context.Context, caller id.UserID) (int, error)
	GetRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListAuditTrail(ctx context.Context, requestID id.RequestID) ([]*models.AuditEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated workflow endpoints. The router must
// already resolve the bearer principal.
func (h *Handler) Register(r chi.Router) {
	r.Post("/multisig/requests", h.HandlePropose)
	r.Post("/multisig/requests/sweep", h.HandleSweep)
	r.Post("/multisig/requests/{requestID}/signatures", h.HandleSign)
	r.Post("/multisig/requests/{requestID}/execute", h.HandleExecute)
	r.Post("/multisig/requests/{requestID}/reject", h.HandleReject)
}

// RegisterPublic mounts the read-only endpoints. Approval requests are the
// governance public record, so reads need no authentication.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/multisig/requests/{requestID}", h.HandleGetRequest)
	r.Get("/multisig/requests/{requestID}/audit-trail", h.HandleAuditTrail)
}

func callerFromContext(ctx context.Context) (id.UserID, error) {
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func requestIDFromPath(r *http.Request) (id.RequestID, error) {
	return id.ParseRequestID(chi.URLParam(r, "requestID"))
}

// HandlePropose opens an approval request for a guarded operation.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	op, err := req.toOperation()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposal, err := h.service.Propose(ctx, caller, op)
	if err != nil {
		h.logger.ErrorContext(ctx, "propose failed",
			"error", err, "request_id", requestID, "kind", req.Kind)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRequestResponse(proposal))
}

// HandleSign records the caller's signature on a pending request.
func (h *Handler) HandleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	approvalID, err := requestIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	signed, err := h.service.Sign(ctx, caller, approvalID)
	if err != nil {
		h.logger.ErrorContext(ctx, "sign failed",
			"error", err, "request_id", requestID, "approval_request_id", approvalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(signed))
}

// HandleExecute runs an approved request's bound operation.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	approvalID, err := requestIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	executed, err := h.service.Execute(ctx, caller, approvalID)
	if err != nil {
		h.logger.ErrorContext(ctx, "execute failed",
			"error", err, "request_id", requestID, "approval_request_id", approvalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(executed))
}

// HandleReject closes a pending request without execution.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	approvalID, err := requestIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rejected, err := h.service.Reject(ctx, caller, approvalID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "reject failed",
			"error", err, "request_id", requestID, "approval_request_id", approvalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(rejected))
}

// HandleSweep expires pending requests past their deadline. Anyone may
// trigger the sweep; it only advances requests the deadline already doomed.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	expired, err := h.service.ExpireStale(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &SweepResponse{Expired: expired})
}

// HandleGetRequest returns one approval request.
func (h *Handler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	approvalID, err := requestIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.GetRequest(r.Context(), approvalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

// HandleAuditTrail returns a request's immutable trail in append order.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	approvalID, err := requestIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	trail, err := h.service.ListAuditTrail(r.Context(), approvalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditTrailResponse(approvalID.String(), trail))
}
