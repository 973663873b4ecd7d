// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "laurel/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a UserID where a RequestID is expected.
type (
	UserID         uuid.UUID
	RequestID      uuid.UUID
	OverrideID     uuid.UUID
	NotificationID uuid.UUID
	RenewalID      uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseRequestID(s string) (RequestID, error) {
	id, err := parseUUID(s, "request ID")
	return RequestID(id), err
}

func ParseOverrideID(s string) (OverrideID, error) {
	id, err := parseUUID(s, "override ID")
	return OverrideID(id), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := parseUUID(s, "notification ID")
	return NotificationID(id), err
}

func ParseRenewalID(s string) (RenewalID, error) {
	id, err := parseUUID(s, "renewal ID")
	return RenewalID(id), err
}

// New functions - generate fresh identifiers at creation sites.

func NewRequestID() RequestID           { return RequestID(uuid.New()) }
func NewOverrideID() OverrideID         { return OverrideID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewRenewalID() RenewalID           { return RenewalID(uuid.New()) }

// String methods - for logging and debugging.

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RequestID) String() string      { return uuid.UUID(id).String() }
func (id OverrideID) String() string     { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id RenewalID) String() string      { return uuid.UUID(id).String() }

// Text marshaling - keeps identifiers as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "user ID")
	if err != nil {
		return err
	}
	*id = UserID(parsed)
	return nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "request ID")
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id OverrideID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RenewalID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic.
// Note: Nil UUIDs are allowed here. Use IsNil() at the service layer for
// business validation, which allows store lookups to return proper
// "not found" errors for consistency.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
