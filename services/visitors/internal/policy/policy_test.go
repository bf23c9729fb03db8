package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

var (
	anonymous    = domain.Anonymous()
	superAdmin   = domain.Actor{ID: "sa", Role: domain.RoleSuperAdmin}
	admin        = domain.Actor{ID: "ad", Role: domain.RoleAdmin}
	receptionist = domain.Actor{ID: "rc", Role: domain.RoleReceptionist}
	visitor      = domain.Actor{ID: "vi", Role: domain.RoleVisitor}
)

func code(err error) domain.ErrorCode {
	return domain.CodeOf(err)
}

func TestAnonymousMayOnlyCheckIn(t *testing.T) {
	assert.NoError(t, Authorize(anonymous, VisitorCreate, nil))

	for _, a := range []Action{VisitorList, VisitorUpdate, VisitorDelete, UserList, UserCreate, UserRole, UserDelete, ProfileUpdate, StatsView} {
		assert.Equal(t, domain.CodeAccessDenied, code(Authorize(anonymous, a, &Target{ID: "x"})), a)
	}
}

func TestRoleWithoutIDIsAnonymous(t *testing.T) {
	assert.Equal(t, domain.CodeAccessDenied, code(Authorize(domain.Actor{Role: domain.RoleAdmin}, VisitorList, nil)))
}

func TestListVisitors(t *testing.T) {
	for _, a := range []domain.Actor{superAdmin, admin, receptionist} {
		assert.NoError(t, Authorize(a, VisitorList, nil), a.Role)
		assert.NoError(t, Authorize(a, StatsView, nil), a.Role)
	}
	assert.Equal(t, domain.CodeAccessDenied, code(Authorize(visitor, VisitorList, nil)))
	assert.Equal(t, domain.CodeAccessDenied, code(Authorize(visitor, StatsView, nil)))
}

func TestMutateVisitors(t *testing.T) {
	for _, action := range []Action{VisitorUpdate, VisitorDelete} {
		assert.NoError(t, Authorize(superAdmin, action, nil))
		assert.NoError(t, Authorize(admin, action, nil))
		assert.Equal(t, domain.CodePermissionDenied, code(Authorize(receptionist, action, nil)))
		assert.Equal(t, domain.CodePermissionDenied, code(Authorize(visitor, action, nil)))
	}
}

func TestCheckInAllowedForEveryone(t *testing.T) {
	for _, a := range []domain.Actor{anonymous, superAdmin, admin, receptionist, visitor} {
		assert.NoError(t, Authorize(a, VisitorCreate, nil))
	}
}

func TestProtectedTargetWinsForEveryRole(t *testing.T) {
	protected := &Target{ID: "owner", RoleProtected: true}
	for _, a := range []domain.Actor{superAdmin, admin, receptionist, visitor} {
		assert.Equal(t, domain.CodeProtectedTarget, code(Authorize(a, UserDelete, protected)), a.Role)
		assert.Equal(t, domain.CodeProtectedTarget, code(Authorize(a, UserRole, protected)), a.Role)
	}
}

func TestUserRoleAndDelete(t *testing.T) {
	plain := &Target{ID: "someone"}
	for _, action := range []Action{UserRole, UserDelete} {
		assert.NoError(t, Authorize(admin, action, plain))
		assert.NoError(t, Authorize(superAdmin, action, plain))
		assert.Equal(t, domain.CodePermissionDenied, code(Authorize(receptionist, action, plain)))
		assert.Equal(t, domain.CodePermissionDenied, code(Authorize(visitor, action, plain)))
	}
}

func TestSuperAdminCannotDeleteSelf(t *testing.T) {
	self := &Target{ID: superAdmin.ID}
	assert.Equal(t, domain.CodeSelfDeleteForbidden, code(Authorize(superAdmin, UserDelete, self)))
	assert.NoError(t, Authorize(superAdmin, UserRole, self))
}

func TestUserListAndCreate(t *testing.T) {
	assert.NoError(t, Authorize(visitor, UserList, nil))
	assert.NoError(t, Authorize(admin, UserCreate, nil))
	assert.Equal(t, domain.CodePermissionDenied, code(Authorize(receptionist, UserCreate, nil)))
}

func TestProfileUpdate(t *testing.T) {
	own := &Target{ID: visitor.ID}
	assert.NoError(t, Authorize(visitor, ProfileUpdate, own))
	assert.Equal(t, domain.CodePermissionDenied, code(Authorize(visitor, ProfileUpdate, &Target{ID: visitor.ID, Provisioned: true})))
	assert.Equal(t, domain.CodePermissionDenied, code(Authorize(visitor, ProfileUpdate, &Target{ID: "other"})))
}

func TestTargetOf(t *testing.T) {
	assert.Nil(t, TargetOf(nil))

	creator := "ad"
	p := &domain.Profile{ID: "u1", RoleProtected: true, CreatedBy: &creator}
	assert.Equal(t, &Target{ID: "u1", RoleProtected: true, Provisioned: true}, TargetOf(p))

	self := "u2"
	assert.False(t, TargetOf(&domain.Profile{ID: "u2", CreatedBy: &self}).Provisioned)
}

func TestUnknownActionDenied(t *testing.T) {
	assert.Equal(t, domain.CodePermissionDenied, code(Authorize(superAdmin, Action("visitor:export"), nil)))
	assert.False(t, Can(visitor, VisitorDelete, nil))
}
