package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit tests for identifier parsing at trust boundaries.
// Justification: every handler funnels raw strings through these; a format
// regression here turns into confusing 500s instead of clean 400s.

func TestParseUserID(t *testing.T) {
	t.Run("parses valid uuid", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseUserID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, raw.String(), id.String())
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
	})

	t.Run("rejects malformed uuid", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("nil uuid parses but reports IsNil", func(t *testing.T) {
		id, err := ParseUserID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestParseCertificateID(t *testing.T) {
	t.Run("round-trips 32 byte hex", func(t *testing.T) {
		original := NewCertificateID()
		parsed, err := ParseCertificateID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseCertificateID("")
		require.Error(t, err)
	})

	t.Run("rejects short hex", func(t *testing.T) {
		_, err := ParseCertificateID("abcd")
		require.Error(t, err)
	})

	t.Run("rejects non-hex of correct length", func(t *testing.T) {
		_, err := ParseCertificateID(strings.Repeat("zz", 32))
		require.Error(t, err)
	})

	t.Run("zero value reports IsZero", func(t *testing.T) {
		var id CertificateID
		assert.True(t, id.IsZero())
		assert.False(t, NewCertificateID().IsZero())
	})
}

func TestParseCourseID(t *testing.T) {
	t.Run("accepts typical identifiers", func(t *testing.T) {
		for _, raw := range []string{"CS-101", "math.201", "intro_go", "A1"} {
			id, err := ParseCourseID(raw)
			require.NoError(t, err, "expected %q to parse", raw)
			assert.Equal(t, raw, id.String())
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseCourseID("  CS-101  ")
		require.NoError(t, err)
		assert.Equal(t, CourseID("CS-101"), id)
	})

	t.Run("rejects empty and overlong", func(t *testing.T) {
		_, err := ParseCourseID("")
		require.Error(t, err)

		_, err = ParseCourseID(strings.Repeat("a", 65))
		require.Error(t, err)
	})

	t.Run("rejects forbidden characters", func(t *testing.T) {
		for _, raw := range []string{"CS 101", "CS/101", "CS#101"} {
			_, err := ParseCourseID(raw)
			require.Error(t, err, "expected %q to be rejected", raw)
		}
	})
}
