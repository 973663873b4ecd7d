package governance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accesshandler "laurel/internal/access/handler"
	certhandler "laurel/internal/certificate/handler"
	id "laurel/pkg/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintRequiresBearerToken(t *testing.T) {
	e := SetupSuite(t)
	body := certhandler.MintRequest{
		CertificateID: id.NewCertificateID().String(),
		CourseID:      "HIST-101",
		StudentID:     e.aliceID.String(),
		Title:         "World History",
		ExpiresAt:     time.Now().UTC().Add(365 * 24 * time.Hour),
	}

	rec := e.do(t, http.MethodPost, "/certificates", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/certificates", "not-a-real-token", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRevokedTokenStopsWorking(t *testing.T) {
	e := SetupSuite(t)
	yearOut := time.Now().UTC().Add(365 * 24 * time.Hour)

	// A second token for the instructor; revoking it must not touch the
	// one issued during bootstrap.
	bearer := e.issueToken(t, e.instructorID)
	e.mint(t, bearer, "HIST-101", e.aliceID, "World History", yearOut)

	rec := e.adminDo(t, http.MethodPost, "/admin/access/tokens/revoke",
		accesshandler.RevokeTokenRequest{Token: bearer})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/certificates", bearer, certhandler.MintRequest{
		CertificateID: id.NewCertificateID().String(),
		CourseID:      "HIST-102",
		StudentID:     e.aliceID.String(),
		Title:         "Modern History",
		ExpiresAt:     yearOut,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")

	// The bootstrap token still works.
	e.mint(t, e.instructorBearer, "HIST-102", e.aliceID, "Modern History", yearOut)
}

func TestStudentCannotMint(t *testing.T) {
	e := SetupSuite(t)

	rec := e.do(t, http.MethodPost, "/certificates", e.aliceBearer, certhandler.MintRequest{
		CertificateID: id.NewCertificateID().String(),
		CourseID:      "CS-101",
		StudentID:     e.aliceID.String(),
		Title:         "Intro to Computer Science",
		ExpiresAt:     time.Now().UTC().Add(365 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission")
}

func TestMintRejectsIncompleteRequest(t *testing.T) {
	e := SetupSuite(t)

	rec := e.do(t, http.MethodPost, "/certificates", e.instructorBearer, certhandler.MintRequest{
		CertificateID: id.NewCertificateID().String(),
		StudentID:     e.aliceID.String(),
		Title:         "Untitled",
		ExpiresAt:     time.Now().UTC().Add(365 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestMintBatch(t *testing.T) {
	e := SetupSuite(t)
	yearOut := time.Now().UTC().Add(365 * 24 * time.Hour)

	batch := certhandler.MintBatchRequest{Certificates: []certhandler.MintRequest{
		{
			CertificateID: id.NewCertificateID().String(),
			CourseID:      "BIO-101",
			StudentID:     e.aliceID.String(),
			Title:         "Cell Biology",
			ExpiresAt:     yearOut,
		},
		{
			CertificateID: id.NewCertificateID().String(),
			CourseID:      "CHEM-101",
			StudentID:     e.aliceID.String(),
			Title:         "General Chemistry",
			ExpiresAt:     yearOut,
		},
	}}

	rec := e.do(t, http.MethodPost, "/certificates/batch", e.instructorBearer, batch)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var minted certhandler.CertificateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &minted))
	require.Equal(t, 2, minted.Count)

	rec = e.do(t, http.MethodGet, "/students/"+e.aliceID.String()+"/certificates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed certhandler.CertificateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 2, listed.Count)
}

func TestTransferNeedsCourseAdmin(t *testing.T) {
	e := SetupSuite(t)
	bobID := id.UserID(uuid.New())
	certificateID := e.mint(t, e.instructorBearer, "ART-200", e.aliceID, "Studio Art",
		time.Now().UTC().Add(365*24*time.Hour))

	transfer := certhandler.TransferRequest{
		NewOwnerID: bobID.String(),
		Reason:     "enrollment record correction",
	}

	// The issuing instructor does not hold transfer rights.
	rec := e.do(t, http.MethodPost, "/certificates/"+certificateID+"/transfer",
		e.instructorBearer, transfer)
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/certificates/"+certificateID+"/transfer",
		e.registrarBearer, transfer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/certificates/"+certificateID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cert certhandler.CertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cert))
	assert.Equal(t, bobID.String(), cert.StudentID)

	rec = e.do(t, http.MethodGet, "/students/"+e.aliceID.String()+"/certificates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed certhandler.CertificateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 0, listed.Count)
}

func TestPublicCertificateReads(t *testing.T) {
	e := SetupSuite(t)

	rec := e.do(t, http.MethodGet, "/certificates/"+id.NewCertificateID().String(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	certificateID := e.mint(t, e.instructorBearer, "MATH-101", e.aliceID, "Calculus I",
		time.Now().UTC().Add(365*24*time.Hour))

	rec = e.do(t, http.MethodGet, "/certificates/"+certificateID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cert certhandler.CertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cert))
	assert.Equal(t, "MATH-101", cert.CourseID)
	assert.Equal(t, e.aliceID.String(), cert.StudentID)
	assert.Equal(t, e.instructorID.String(), cert.InstructorID)
	assert.Equal(t, "active", cert.Status)
	assert.Equal(t, 0, cert.RenewalCount)

	rec = e.do(t, http.MethodGet, "/instructors/"+e.instructorID.String()+"/certificates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed certhandler.CertificateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)
}

func TestSecondBootstrapRejected(t *testing.T) {
	e := SetupSuite(t)

	rec := e.adminDo(t, http.MethodPost, "/admin/access/bootstrap",
		accesshandler.BootstrapRequest{AdminUserID: id.UserID(uuid.New()).String()})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestAdminGroupRejectsBadToken(t *testing.T) {
	e := SetupSuite(t)

	// Wrong shared token.
	req := httptest.NewRequest(http.MethodGet, "/admin/access/roles", nil)
	req.Header.Set("X-Admin-Token", "wrong-token")
	req.Header.Set("X-Admin-Actor-ID", e.adminID.String())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Right token, no actor header: the middleware lets the request
	// through and the handler refuses to act without attribution.
	grant := fmt.Sprintf(`{"user_id":%q,"role":"instructor"}`, uuid.NewString())
	req = httptest.NewRequest(http.MethodPost, "/admin/access/roles", strings.NewReader(grant))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", adminToken)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-Admin-Actor-ID")
}
