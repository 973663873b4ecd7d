package handler

import (
	"strings"

	"laurel/internal/access/models"
	dErrors "laurel/pkg/domain-errors"
)

// BootstrapRequest seeds the initial super admin.
type BootstrapRequest struct {
	AdminUserID string `json:"admin_user_id"`
}

func (r *BootstrapRequest) Normalize() {
	r.AdminUserID = strings.TrimSpace(r.AdminUserID)
}

func (r *BootstrapRequest) Validate() error {
	if r.AdminUserID == "" {
		return dErrors.New(dErrors.CodeValidation, "admin_user_id is required")
	}
	return nil
}

// GrantRoleRequest assigns a role to a user.
type GrantRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r *GrantRoleRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *GrantRoleRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if _, err := models.ParseRole(r.Role); err != nil {
		return err
	}
	return nil
}

// IssueTokenRequest mints a bearer token for a user.
type IssueTokenRequest struct {
	UserID string `json:"user_id"`
}

func (r *IssueTokenRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *IssueTokenRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return nil
}

// RevokeTokenRequest revokes a previously issued bearer token.
type RevokeTokenRequest struct {
	Token string `json:"token"`
}

func (r *RevokeTokenRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
}

func (r *RevokeTokenRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}
