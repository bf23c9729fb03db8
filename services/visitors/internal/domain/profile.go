package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/visitor-desk/internal/utils"
)

type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
	RoleVisitor      Role = "visitor"
)

var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleReceptionist, RoleVisitor}

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleReceptionist, RoleVisitor:
		return Role(s), true
	default:
		return "", false
	}
}

// IsStaff reports roles allowed to read the visitor log.
func (r Role) IsStaff() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleReceptionist
}

// IsAdmin reports roles allowed to mutate visitors and users.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Profile is the application identity layered over an authentication identity.
type Profile struct {
	ID            string     `json:"id" db:"id"`
	Username      string     `json:"username" db:"username"`
	Email         string     `json:"email" db:"email"`
	Role          Role       `json:"role" db:"role"`
	RoleProtected bool       `json:"role_protected" db:"role_protected"`
	AvatarURL     *string    `json:"avatar_url" db:"avatar_url"`
	CreatedBy     *string    `json:"created_by" db:"created_by"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedBy     *string    `json:"deleted_by,omitempty" db:"deleted_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func (p *Profile) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Actor returns the caller view of the profile. Deleted profiles act as anonymous.
func (p *Profile) Actor() Actor {
	if p == nil || p.IsDeleted() {
		return Anonymous()
	}
	return Actor{ID: p.ID, Role: p.Role}
}

// Identity is the authentication record a profile hangs off.
type Identity struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Actor is whoever is calling an operation. The zero value is unauthenticated.
type Actor struct {
	ID   string
	Role Role
}

func Anonymous() Actor {
	return Actor{}
}

func (a Actor) Authenticated() bool {
	return a.ID != "" && a.Role != ""
}

// UsernameFromEmail derives the default username: the text before '@'.
func UsernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username,omitempty" validate:"omitempty,max=64"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	Profile     *Profile `json:"profile,omitempty"`
}

type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,max=64"`
	Email     string  `json:"email" validate:"required,email"`
	Role      Role    `json:"role" validate:"required,role"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,role"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitnil,min=1,max=64"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

func (r *SignUpRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

func (r *SignInRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = utils.NormalizeEmail(r.Email)
	r.Role = Role(strings.TrimSpace(string(r.Role)))
	r.AvatarURL = utils.NormalizeOptional(r.AvatarURL)
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.AvatarURL != nil {
		v := strings.TrimSpace(*r.AvatarURL)
		r.AvatarURL = &v
	}
}

func (r *UpdateProfileRequest) Empty() bool {
	return r.Username == nil && r.AvatarURL == nil
}
