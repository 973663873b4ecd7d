package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	dErrors "laurel/pkg/domain-errors"
)

// CertificateID is the fixed-size opaque token identifying a certificate.
// It travels hex-encoded (64 characters) at API boundaries.
type CertificateID [32]byte

// ParseCertificateID decodes a hex-encoded certificate identifier.
func ParseCertificateID(s string) (CertificateID, error) {
	var id CertificateID
	if s == "" {
		return id, dErrors.New(dErrors.CodeInvalidInput, "certificate ID cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(id) {
		return id, dErrors.New(dErrors.CodeInvalidInput, "certificate ID must be 32 bytes hex-encoded")
	}
	copy(id[:], raw)
	return id, nil
}

// NewCertificateID returns a random certificate identifier. Issuance normally
// receives the identifier from the caller; this exists for tooling and tests.
func NewCertificateID() CertificateID {
	var id CertificateID
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(id[:])
	return id
}

func (id CertificateID) String() string { return hex.EncodeToString(id[:]) }

func (id CertificateID) IsZero() bool { return id == CertificateID{} }

// MarshalText encodes the identifier as hex so JSON payloads stay readable.
func (id CertificateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *CertificateID) UnmarshalText(text []byte) error {
	parsed, err := ParseCertificateID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CourseID identifies a course in the prerequisite graph, e.g. "CS-101".
type CourseID string

const maxCourseIDLength = 64

// ParseCourseID validates and normalizes a course identifier.
// Course identifiers are case-sensitive, trimmed, and bounded in length.
func ParseCourseID(s string) (CourseID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "course ID cannot be empty")
	}
	if len(s) > maxCourseIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "course ID must be 64 characters or less")
	}
	for _, r := range s {
		if !isCourseIDRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "course ID may contain only letters, digits, '.', '-' and '_'")
		}
	}
	return CourseID(s), nil
}

func isCourseIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_':
		return true
	}
	return false
}

func (id CourseID) String() string { return string(id) }

func (id CourseID) IsZero() bool { return id == "" }
