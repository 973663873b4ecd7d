package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"laurel/internal/certificate/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/requestcontext"
)

// Service defines the certificate operations the handler consumes.
// Revocation and metadata overrides are deliberately absent: those paths
// exist only behind the multi-signature coordinator.
type Service interface {
	Mint(ctx context.Context, issuer id.UserID, params models.MintParams) (*models.Certificate, error)
	MintBatch(ctx context.Context, issuer id.UserID, batch []models.MintParams) ([]*models.Certificate, error)
	Transfer(ctx context.Context, caller id.UserID, certificateID id.CertificateID, newOwner id.UserID, reason string) error
	Get(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error)
	ListByStudent(ctx context.Context, studentID id.UserID) ([]*models.Certificate, error)
	ListByInstructor(ctx context.Context, instructorID id.UserID) ([]*models.Certificate, error)
	MetadataHistory(ctx context.Context, certificateID id.CertificateID) ([]models.MetadataUpdateEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated certificate endpoints. The router must
// already resolve the bearer principal.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleMint)
	r.Post("/certificates/batch", h.HandleMintBatch)
	r.Post("/certificates/{certificateID}/transfer", h.HandleTransfer)
}

// RegisterPublic mounts the read-only verification endpoints. Anyone may
// verify a credential.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/certificates/{certificateID}", h.HandleGet)
	r.Get("/certificates/{certificateID}/validity", h.HandleValidity)
	r.Get("/certificates/{certificateID}/history", h.HandleMetadataHistory)
	r.Get("/students/{userID}/certificates", h.HandleListByStudent)
	r.Get("/instructors/{userID}/certificates", h.HandleListByInstructor)
}

// callerFromContext resolves the authenticated principal placed in context
// by the auth middleware.
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

// HandleMint issues a certificate to a student.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Mint(ctx, issuer, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "mint failed", "error", err, "request_id", requestID, "course_id", req.CourseID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

// HandleMintBatch issues a bounded batch of certificates atomically.
func (h *Handler) HandleMintBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	issuer, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[MintBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	batch, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	certs, err := h.service.MintBatch(ctx, issuer, batch)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch mint failed", "error", err, "request_id", requestID, "count", len(batch))
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &CertificateListResponse{
		Certificates: toCertificateResponses(certs),
		Count:        len(certs),
	})
}

// HandleTransfer moves a certificate to a new holder.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	newOwner, err := id.ParseUserID(req.NewOwnerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Transfer(ctx, caller, certificateID, newOwner, req.Reason); err != nil {
		h.logger.ErrorContext(ctx, "transfer failed", "error", err, "request_id", requestID, "certificate_id", certificateID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "transferred"})
}

// HandleGet returns a certificate record.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Get(ctx, certificateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(cert))
}

// HandleValidity reports whether a certificate currently attests
// achievement. Validity is computed against the request clock; an Active
// record past its expiry is invalid even before a sweep records it.
func (h *Handler) HandleValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.service.Get(ctx, certificateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	httputil.WriteJSON(w, http.StatusOK, &ValidityResponse{
		CertificateID: cert.ID.String(),
		Valid:         cert.IsValid(now),
		Expired:       cert.IsPastExpiry(now),
		Status:        string(cert.Status),
		ExpiresAt:     cert.ExpiresAt,
	})
}

// HandleMetadataHistory returns the append-only metadata trail.
func (h *Handler) HandleMetadataHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certificateID, err := certificateIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.MetadataHistory(ctx, certificateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toMetadataHistoryResponse(certificateID.String(), entries))
}

// HandleListByStudent returns the certificates a student holds.
func (h *Handler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	certs, err := h.service.ListByStudent(ctx, studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &CertificateListResponse{
		Certificates: toCertificateResponses(certs),
		Count:        len(certs),
	})
}

// HandleListByInstructor returns the certificates an instructor issued.
func (h *Handler) HandleListByInstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	instructorID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	certs, err := h.service.ListByInstructor(ctx, instructorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &CertificateListResponse{
		Certificates: toCertificateResponses(certs),
		Count:        len(certs),
	})
}
