// Package policy decides whether an actor may perform an action. Decisions are
// pure and must be recomputed for every call because roles change over time.
package policy

import "github.com/diagnosis/visitor-desk/services/visitors/internal/domain"

type Action string

const (
	VisitorCreate Action = "visitor:create"
	VisitorList   Action = "visitor:list"
	VisitorUpdate Action = "visitor:update"
	VisitorDelete Action = "visitor:delete"
	UserList      Action = "user:list"
	UserCreate    Action = "user:create"
	UserRole      Action = "user:role"
	UserDelete    Action = "user:delete"
	ProfileUpdate Action = "profile:update"
	StatsView     Action = "stats:view"
)

// Target describes the record an action applies to, when there is one.
type Target struct {
	ID            string
	RoleProtected bool
	// Provisioned is set when someone other than the owner created the profile.
	Provisioned bool
}

// TargetOf builds the policy view of a stored profile.
func TargetOf(p *domain.Profile) *Target {
	if p == nil {
		return nil
	}
	return &Target{
		ID:            p.ID,
		RoleProtected: p.RoleProtected,
		Provisioned:   p.CreatedBy != nil && *p.CreatedBy != p.ID,
	}
}

var (
	errAccessDenied     = domain.NewError(domain.CodeAccessDenied, "User does not have access")
	errPermissionDenied = domain.NewError(domain.CodePermissionDenied, "Permission denied")
	errProtectedTarget  = domain.NewError(domain.CodeProtectedTarget, "This account is protected and cannot be modified")
	errSelfDelete       = domain.NewError(domain.CodeSelfDeleteForbidden, "You cannot delete your own account")
)

// Authorize returns nil when actor may perform action on target, otherwise a
// *domain.Error carrying the reason. Rules apply in order and the first match
// decides.
func Authorize(actor domain.Actor, action Action, target *Target) error {
	if !actor.Authenticated() {
		if action == VisitorCreate {
			return nil
		}
		return errAccessDenied
	}

	switch action {
	case VisitorCreate, UserList:
		return nil

	case VisitorList, StatsView:
		if actor.Role.IsStaff() {
			return nil
		}
		return errAccessDenied

	case VisitorUpdate, VisitorDelete, UserCreate:
		if actor.Role.IsAdmin() {
			return nil
		}
		return errPermissionDenied

	case UserRole, UserDelete:
		if target != nil && target.RoleProtected {
			return errProtectedTarget
		}
		if !actor.Role.IsAdmin() {
			return errPermissionDenied
		}
		if action == UserDelete && actor.Role == domain.RoleSuperAdmin && target != nil && target.ID == actor.ID {
			return errSelfDelete
		}
		return nil

	case ProfileUpdate:
		if target == nil || target.ID != actor.ID || target.Provisioned {
			return errPermissionDenied
		}
		return nil
	}

	return errPermissionDenied
}

// Can is Authorize as a boolean, for deciding what to show.
func Can(actor domain.Actor, action Action, target *Target) bool {
	return Authorize(actor, action, target) == nil
}
