package handler

import (
	"time"

	"laurel/internal/access/models"
)

// RoleAssignmentResponse is the wire shape for a role assignment.
type RoleAssignmentResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRoleAssignmentResponse(a *models.RoleAssignment) *RoleAssignmentResponse {
	return &RoleAssignmentResponse{
		UserID:    a.UserID.String(),
		Role:      string(a.Role),
		GrantedBy: a.GrantedBy.String(),
		GrantedAt: a.GrantedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// RoleListResponse wraps the assignment list.
type RoleListResponse struct {
	Assignments []*RoleAssignmentResponse `json:"assignments"`
	Count       int                       `json:"count"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	JTI         string `json:"jti"`
	ExpiresIn   int64  `json:"expires_in"`
}

// StatusResponse acknowledges a state change without a body to return.
type StatusResponse struct {
	Status string `json:"status"`
}
