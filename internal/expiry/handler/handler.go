package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"laurel/internal/expiry/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler consumes.
type Service interface {
	RequestRenewal(ctx context.Context, requester id.UserID, certificateID id.CertificateID, newExpiry time.Time) (*models.RenewalRequest, error)
	ListRenewals(ctx context.Context, certificateID id.CertificateID) ([]*models.RenewalRequest, error)
	GetNotification(ctx context.Context, certificateID id.CertificateID) (*models.ExpiryNotification, error)
	DeliverNotice(ctx context.Context, certificateID id.CertificateID) (bool, error)
	ScanAndExpire(ctx context.Context, batch []id.CertificateID) (*models.SweepResult, error)
	SweepDue(ctx context.Context, after id.CertificateID, limit int) (*models.SweepResult, id.CertificateID, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated lifecycle endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates/{certificateID}/renewals", h.HandleRequestRenewal)
	r.Post("/certificates/{certificateID}/expiry-notice/deliver", h.HandleDeliverNotice)
	r.Post("/expiry/sweep", h.HandleSweep)
}

// RegisterPublic mounts the read-only endpoints. Renewal history and notice
// status are part of the certificate's public record.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/certificates/{certificateID}/renewals", h.HandleListRenewals)
	r.Get("/certificates/{certificateID}/expiry-notice", h.HandleGetNotice)
}

func callerFromContext(ctx context.Context) (id.UserID, error) {
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func certificateIDFromPath(r *http.Request) (id.CertificateID, error) {
	return id.ParseCertificateID(chi.URLParam(r, "certificateID"))
}

// HandleRequestRenewal accepts an extension request from the certificate
// holder or the issuing instructor.
func (h *Handler) HandleRequestRenewal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RenewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	renewal, err := h.service.RequestRenewal(ctx, caller, certificateID, req.NewExpiresAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "renewal request failed",
			"error", err, "request_id", requestID, "certificate_id", certificateID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRenewalResponse(renewal))
}

// HandleListRenewals returns a certificate's renewal history.
func (h *Handler) HandleListRenewals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	renewals, err := h.service.ListRenewals(ctx, certificateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "renewal listing failed",
			"error", err, "request_id", requestID, "certificate_id", certificateID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRenewalListResponse(certificateID.String(), renewals))
}

// HandleGetNotice returns the certificate's expiry notice.
func (h *Handler) HandleGetNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	notification, err := h.service.GetNotification(ctx, certificateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "notice lookup failed",
			"error", err, "request_id", requestID, "certificate_id", certificateID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toNotificationResponse(notification))
}

// HandleDeliverNotice marks the certificate's expiry notice delivered.
func (h *Handler) HandleDeliverNotice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := callerFromContext(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}
	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	delivered, err := h.service.DeliverNotice(ctx, certificateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "notice delivery failed",
			"error", err, "request_id", requestID, "certificate_id", certificateID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &DeliveryResponse{Delivered: delivered})
}

// HandleSweep expires due certificates: an explicit batch when the body
// names one, otherwise one page of the due backlog.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := callerFromContext(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var batch []id.CertificateID
	if r.ContentLength > 0 {
		req, ok := httputil.DecodeAndPrepare[SweepRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		parsed, err := req.toBatch()
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		batch = parsed
	}

	if len(batch) > 0 {
		result, err := h.service.ScanAndExpire(ctx, batch)
		if err != nil {
			h.logger.ErrorContext(ctx, "targeted sweep failed",
				"error", err, "request_id", requestID)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toSweepResponse(result, false))
		return
	}

	result, next, err := h.service.SweepDue(ctx, id.CertificateID{}, 0)
	if err != nil {
		h.logger.ErrorContext(ctx, "due sweep failed",
			"error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSweepResponse(result, !next.IsZero()))
}
