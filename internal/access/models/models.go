// Package models defines roles, permissions, and caller identity for the
// governance service.
package models

import (
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
)

// Role is a governance role. Roles are strictly ordered: each level holds
// every permission of the levels below it.
type Role string

const (
	RoleStudent     Role = "student"
	RoleInstructor  Role = "instructor"
	RoleCourseAdmin Role = "course_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// roleLevels orders roles for comparison. Higher level outranks lower.
var roleLevels = map[Role]int{
	RoleStudent:     0,
	RoleInstructor:  1,
	RoleCourseAdmin: 2,
	RoleSuperAdmin:  3,
}

// ParseRole validates a role string from a trust boundary.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := roleLevels[role]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return role, nil
}

// Level returns the ordinal rank of the role. Unknown roles rank below
// student so a corrupted assignment can never gain access.
func (r Role) Level() int {
	level, ok := roleLevels[r]
	if !ok {
		return -1
	}
	return level
}

// AtLeast reports whether r outranks or equals other.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level() && r.Level() >= 0
}

// Permission names a guarded governance action.
type Permission string

const (
	PermissionIssueCertificate    Permission = "issue_certificate"
	PermissionRevokeCertificate   Permission = "revoke_certificate"
	PermissionTransferCertificate Permission = "transfer_certificate"
	PermissionUpdateMetadata      Permission = "update_metadata"
	PermissionManagePrerequisites Permission = "manage_prerequisites"
	PermissionGrantOverride       Permission = "grant_override"
	PermissionProposeMultiSig     Permission = "propose_multisig"
	PermissionSignMultiSig        Permission = "sign_multisig"
	PermissionRejectProposal      Permission = "reject_proposal"
	PermissionManagePolicy        Permission = "manage_policy"
	PermissionManageRoles         Permission = "manage_roles"
)

// minRoleFor maps each permission to the lowest role that holds it.
// Students hold no listed permission: their operations (reading their own
// certificates, requesting renewals) are ownership-checked, not role-checked.
var minRoleFor = map[Permission]Role{
	PermissionIssueCertificate:    RoleInstructor,
	PermissionUpdateMetadata:      RoleInstructor,
	PermissionProposeMultiSig:     RoleInstructor,
	PermissionSignMultiSig:        RoleInstructor,
	PermissionRevokeCertificate:   RoleCourseAdmin,
	PermissionTransferCertificate: RoleCourseAdmin,
	PermissionManagePrerequisites: RoleCourseAdmin,
	PermissionGrantOverride:       RoleCourseAdmin,
	PermissionRejectProposal:      RoleCourseAdmin,
	PermissionManagePolicy:        RoleSuperAdmin,
	PermissionManageRoles:         RoleSuperAdmin,
}

// Has reports whether the role holds the permission.
func (r Role) Has(perm Permission) bool {
	min, ok := minRoleFor[perm]
	if !ok {
		return false
	}
	return r.AtLeast(min)
}

// Permissions returns every permission the role holds, for introspection
// endpoints. Order is unspecified.
func (r Role) Permissions() []Permission {
	var out []Permission
	for perm := range minRoleFor {
		if r.Has(perm) {
			out = append(out, perm)
		}
	}
	return out
}

// Principal is a verified caller identity. Handlers resolve it from the
// bearer token and role store; services receive it explicitly.
type Principal struct {
	UserID id.UserID
	Role   Role
}

// RoleAssignment records who holds which role and who granted it.
type RoleAssignment struct {
	UserID    id.UserID
	Role      Role
	GrantedBy id.UserID
	GrantedAt time.Time
	UpdatedAt time.Time
}
