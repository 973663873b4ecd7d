package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laurel/internal/certificate/models"
	"laurel/internal/sentinel"
	id "laurel/pkg/domain"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCertificate(t *testing.T, student id.UserID, course string, expiresAt time.Time) *models.Certificate {
	t.Helper()
	courseID, err := id.ParseCourseID(course)
	require.NoError(t, err)

	cert, err := models.New(models.MintParams{
		CertificateID: id.NewCertificateID(),
		CourseID:      courseID,
		StudentID:     student,
		Title:         "Certificate for " + course,
		ExpiresAt:     expiresAt,
	}, id.UserID(uuid.New()), testBase)
	require.NoError(t, err)
	return cert
}

func TestInsert_DuplicateIDRejected(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	cert := newTestCertificate(t, id.UserID(uuid.New()), "CS-101", testBase.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, cert))

	err := store.Insert(ctx, cert)
	assert.ErrorIs(t, err, sentinel.ErrAlreadyExists)
}

func TestInsertBatch_AllOrNothing(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())

	existing := newTestCertificate(t, student, "CS-101", testBase.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, existing))

	fresh := newTestCertificate(t, student, "CS-102", testBase.Add(time.Hour))
	err := store.InsertBatch(ctx, []*models.Certificate{fresh, existing})
	require.ErrorIs(t, err, sentinel.ErrAlreadyExists)

	// The fresh certificate must not have been written.
	_, err = store.Find(ctx, fresh.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInsertBatch_DuplicateWithinBatchRejected(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	cert := newTestCertificate(t, id.UserID(uuid.New()), "CS-101", testBase.Add(time.Hour))
	err := store.InsertBatch(ctx, []*models.Certificate{cert, cert})
	assert.ErrorIs(t, err, sentinel.ErrAlreadyExists)
}

func TestFind_NotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Find(context.Background(), id.NewCertificateID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestFind_ReturnsIndependentCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	cert := newTestCertificate(t, id.UserID(uuid.New()), "CS-101", testBase.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, cert))

	found, err := store.Find(ctx, cert.ID)
	require.NoError(t, err)
	require.NoError(t, found.Revoke(testBase.Add(time.Minute)))

	again, err := store.Find(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, again.Status, "mutating a returned copy must not touch the store")
}

func TestUpdate_NotFound(t *testing.T) {
	store := NewInMemoryStore()

	cert := newTestCertificate(t, id.UserID(uuid.New()), "CS-101", testBase.Add(time.Hour))
	err := store.Update(context.Background(), cert)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdate_PersistsTransition(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	cert := newTestCertificate(t, id.UserID(uuid.New()), "CS-101", testBase.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, cert))

	require.NoError(t, cert.Revoke(testBase.Add(time.Minute)))
	require.NoError(t, store.Update(ctx, cert))

	found, err := store.Find(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, found.Status)
}

func TestListByStudent_OrderedByIssueTime(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())

	first := newTestCertificate(t, student, "CS-101", testBase.Add(time.Hour))
	second := newTestCertificate(t, student, "CS-102", testBase.Add(time.Hour))
	second.IssuedAt = testBase.Add(time.Minute)
	other := newTestCertificate(t, id.UserID(uuid.New()), "CS-103", testBase.Add(time.Hour))

	require.NoError(t, store.Insert(ctx, second))
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, other))

	certs, err := store.ListByStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, first.ID, certs[0].ID)
	assert.Equal(t, second.ID, certs[1].ID)
}

func TestListByStudentAndCourse_FiltersByCourse(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())

	match := newTestCertificate(t, student, "CS-101", testBase.Add(time.Hour))
	require.NoError(t, store.Insert(ctx, match))
	require.NoError(t, store.Insert(ctx, newTestCertificate(t, student, "CS-102", testBase.Add(time.Hour))))

	courseID, err := id.ParseCourseID("CS-101")
	require.NoError(t, err)
	certs, err := store.ListByStudentAndCourse(ctx, student, courseID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, match.ID, certs[0].ID)
}

func TestListDue_OnlyActivePastExpiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())
	asOf := testBase.Add(24 * time.Hour)

	due := newTestCertificate(t, student, "CS-101", asOf.Add(-time.Minute))
	atBoundary := newTestCertificate(t, student, "CS-102", asOf)
	future := newTestCertificate(t, student, "CS-103", asOf.Add(time.Minute))
	revoked := newTestCertificate(t, student, "CS-104", asOf.Add(-time.Minute))
	require.NoError(t, revoked.Revoke(testBase))

	for _, cert := range []*models.Certificate{due, atBoundary, future, revoked} {
		require.NoError(t, store.Insert(ctx, cert))
	}

	certs, err := store.ListDue(ctx, asOf, id.CertificateID{}, 10)
	require.NoError(t, err)
	require.Len(t, certs, 1, "only active certificates strictly past expiry are due")
	assert.Equal(t, due.ID, certs[0].ID)
}

func TestListDue_PaginatesByCursor(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())
	asOf := testBase.Add(24 * time.Hour)

	for i := 0; i < 5; i++ {
		cert := newTestCertificate(t, student, "CS-101", asOf.Add(-time.Minute))
		require.NoError(t, store.Insert(ctx, cert))
	}

	var seen []id.CertificateID
	cursor := id.CertificateID{}
	for {
		page, err := store.ListDue(ctx, asOf, cursor, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, cert := range page {
			seen = append(seen, cert.ID)
		}
		cursor = page[len(page)-1].ID
	}

	require.Len(t, seen, 5)
	unique := make(map[id.CertificateID]struct{})
	for _, certID := range seen {
		unique[certID] = struct{}{}
	}
	assert.Len(t, unique, 5, "pagination must not repeat certificates")
}

func TestListExpiringBetween_InclusiveBounds(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	student := id.UserID(uuid.New())
	from := testBase.Add(24 * time.Hour)
	to := from.Add(7 * 24 * time.Hour)

	before := newTestCertificate(t, student, "CS-101", from.Add(-time.Second))
	atFrom := newTestCertificate(t, student, "CS-102", from)
	atTo := newTestCertificate(t, student, "CS-103", to)
	after := newTestCertificate(t, student, "CS-104", to.Add(time.Second))

	for _, cert := range []*models.Certificate{before, atFrom, atTo, after} {
		require.NoError(t, store.Insert(ctx, cert))
	}

	certs, err := store.ListExpiringBetween(ctx, from, to, id.CertificateID{}, 10)
	require.NoError(t, err)
	require.Len(t, certs, 2)

	ids := map[id.CertificateID]bool{certs[0].ID: true, certs[1].ID: true}
	assert.True(t, ids[atFrom.ID])
	assert.True(t, ids[atTo.ID])
}
