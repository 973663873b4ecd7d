package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"laurel/internal/prereq/models"
	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/platform/httputil"
	"laurel/pkg/requestcontext"
)

// Service defines the prerequisite graph operations the handler consumes.
type Service interface {
	RegisterPrerequisite(ctx context.Context, caller id.UserID, courseID, requiredID id.CourseID, mandatory bool) (*models.Prerequisite, error)
	RemovePrerequisite(ctx context.Context, caller id.UserID, courseID, requiredID id.CourseID) error
	CheckEligibility(ctx context.Context, studentID id.UserID, courseID id.CourseID) (*models.CheckResult, error)
	BuildLearningPath(ctx context.Context, courseID id.CourseID) ([]id.CourseID, error)
	GrantOverride(ctx context.Context, caller, studentID id.UserID, courseID id.CourseID, reason string, expiresAt *time.Time) (*models.Override, error)
	RevokeOverride(ctx context.Context, caller, studentID id.UserID, courseID id.CourseID) error
	ListPrerequisites(ctx context.Context, courseID id.CourseID) ([]*models.Prerequisite, error)
	ListOverrides(ctx context.Context, studentID id.UserID) ([]*models.Override, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated graph-mutation endpoints. The router
// must already resolve the bearer principal.
func (h *Handler) Register(r chi.Router) {
	r.Post("/courses/{courseID}/prerequisites", h.HandleRegisterPrerequisite)
	r.Delete("/courses/{courseID}/prerequisites/{requiredCourseID}", h.HandleRemovePrerequisite)
	r.Post("/students/{userID}/overrides", h.HandleGrantOverride)
	r.Delete("/students/{userID}/overrides/{courseID}", h.HandleRevokeOverride)
}

// RegisterPublic mounts the read-only graph endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/courses/{courseID}/prerequisites", h.HandleListPrerequisites)
	r.Get("/courses/{courseID}/learning-path", h.HandleLearningPath)
	r.Get("/courses/{courseID}/eligibility/{userID}", h.HandleCheckEligibility)
	r.Get("/students/{userID}/overrides", h.HandleListOverrides)
}

func callerFromContext(ctx context.Context) (id.UserID, error) {
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

func courseIDFromPath(r *http.Request, param string) (id.CourseID, error) {
	return id.ParseCourseID(chi.URLParam(r, param))
}

func userIDFromPath(r *http.Request) (id.UserID, error) {
	return id.ParseUserID(chi.URLParam(r, "userID"))
}

// HandleRegisterPrerequisite adds a dependency edge to a course.
func (h *Handler) HandleRegisterPrerequisite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterPrerequisiteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	requiredID, err := id.ParseCourseID(req.RequiredCourseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	edge, err := h.service.RegisterPrerequisite(ctx, caller, courseID, requiredID, req.Mandatory)
	if err != nil {
		h.logger.ErrorContext(ctx, "register prerequisite failed",
			"error", err, "request_id", requestID, "course_id", courseID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPrerequisiteResponse(edge))
}

// HandleRemovePrerequisite deletes one dependency edge.
func (h *Handler) HandleRemovePrerequisite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requiredID, err := courseIDFromPath(r, "requiredCourseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemovePrerequisite(ctx, caller, courseID, requiredID); err != nil {
		h.logger.ErrorContext(ctx, "remove prerequisite failed",
			"error", err, "request_id", requestID, "course_id", courseID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "removed"})
}

// HandleListPrerequisites returns the direct requirements of a course.
func (h *Handler) HandleListPrerequisites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	edges, err := h.service.ListPrerequisites(ctx, courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPrerequisiteListResponse(courseID.String(), edges))
}

// HandleCheckEligibility reports whether a student satisfies every
// mandatory prerequisite of a course.
func (h *Handler) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	studentID, err := userIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CheckEligibility(ctx, studentID, courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEligibilityResponse(result))
}

// HandleLearningPath returns the topological ordering of a course's
// mandatory closure.
func (h *Handler) HandleLearningPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	path, err := h.service.BuildLearningPath(ctx, courseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]string, len(path))
	for i, step := range path {
		out[i] = step.String()
	}
	httputil.WriteJSON(w, http.StatusOK, &LearningPathResponse{
		CourseID: courseID.String(),
		Path:     out,
		Count:    len(out),
	})
}

// HandleGrantOverride exempts a student from one required course.
func (h *Handler) HandleGrantOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	studentID, err := userIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[GrantOverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	courseID, err := id.ParseCourseID(req.CourseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	override, err := h.service.GrantOverride(ctx, caller, studentID, courseID, req.Reason, req.ExpiresAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "grant override failed",
			"error", err, "request_id", requestID, "course_id", courseID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOverrideResponse(override))
}

// HandleRevokeOverride removes a student's override.
func (h *Handler) HandleRevokeOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := callerFromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	studentID, err := userIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courseID, err := courseIDFromPath(r, "courseID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RevokeOverride(ctx, caller, studentID, courseID); err != nil {
		h.logger.ErrorContext(ctx, "revoke override failed",
			"error", err, "request_id", requestID, "course_id", courseID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{Status: "revoked"})
}

// HandleListOverrides returns all overrides a student holds.
func (h *Handler) HandleListOverrides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	studentID, err := userIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	overrides, err := h.service.ListOverrides(ctx, studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOverrideListResponse(studentID.String(), overrides))
}
