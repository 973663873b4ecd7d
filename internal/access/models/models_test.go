package models

import (
	"testing"

	dErrors "laurel/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"student", RoleStudent, false},
		{"instructor", RoleInstructor, false},
		{"course_admin", RoleCourseAdmin, false},
		{"super_admin", RoleSuperAdmin, false},
		{"", "", true},
		{"admin", "", true},
		{"STUDENT", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleStudent))
	assert.True(t, RoleSuperAdmin.AtLeast(RoleSuperAdmin))
	assert.True(t, RoleCourseAdmin.AtLeast(RoleInstructor))
	assert.False(t, RoleStudent.AtLeast(RoleInstructor))
	assert.False(t, RoleInstructor.AtLeast(RoleCourseAdmin))

	// Unknown roles never outrank anything
	assert.False(t, Role("corrupted").AtLeast(RoleStudent))
}

func TestRole_Has_InstructorPermissions(t *testing.T) {
	assert.True(t, RoleInstructor.Has(PermissionIssueCertificate))
	assert.True(t, RoleInstructor.Has(PermissionUpdateMetadata))
	assert.True(t, RoleInstructor.Has(PermissionProposeMultiSig))
	assert.True(t, RoleInstructor.Has(PermissionSignMultiSig))

	assert.False(t, RoleInstructor.Has(PermissionRevokeCertificate))
	assert.False(t, RoleInstructor.Has(PermissionRejectProposal))
	assert.False(t, RoleInstructor.Has(PermissionGrantOverride))
	assert.False(t, RoleInstructor.Has(PermissionManageRoles))
}

func TestRole_Has_CourseAdminInheritsInstructor(t *testing.T) {
	assert.True(t, RoleCourseAdmin.Has(PermissionIssueCertificate))
	assert.True(t, RoleCourseAdmin.Has(PermissionRevokeCertificate))
	assert.True(t, RoleCourseAdmin.Has(PermissionTransferCertificate))
	assert.True(t, RoleCourseAdmin.Has(PermissionManagePrerequisites))
	assert.True(t, RoleCourseAdmin.Has(PermissionGrantOverride))
	assert.True(t, RoleCourseAdmin.Has(PermissionRejectProposal))

	assert.False(t, RoleCourseAdmin.Has(PermissionManagePolicy))
	assert.False(t, RoleCourseAdmin.Has(PermissionManageRoles))
}

func TestRole_Has_SuperAdminHoldsEverything(t *testing.T) {
	for perm := range minRoleFor {
		assert.True(t, RoleSuperAdmin.Has(perm), "super_admin should hold %s", perm)
	}
}

func TestRole_Has_StudentHoldsNothing(t *testing.T) {
	for perm := range minRoleFor {
		assert.False(t, RoleStudent.Has(perm), "student should not hold %s", perm)
	}
}

func TestRole_Has_UnknownPermission(t *testing.T) {
	assert.False(t, RoleSuperAdmin.Has(Permission("made_up")))
}

func TestRole_Permissions(t *testing.T) {
	assert.Empty(t, RoleStudent.Permissions())
	assert.Len(t, RoleInstructor.Permissions(), 4)
	assert.Len(t, RoleCourseAdmin.Permissions(), 9)
	assert.Len(t, RoleSuperAdmin.Permissions(), len(minRoleFor))
}
