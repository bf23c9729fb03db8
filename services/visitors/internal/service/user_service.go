package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/events"
	"github.com/diagnosis/visitor-desk/pkg/logger"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/mailer"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/policy"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
)

// AvatarStorage persists uploaded profile pictures.
type AvatarStorage interface {
	Save(ctx context.Context, ownerID string, r io.Reader) (string, error)
}

type UserService interface {
	ListUsers(ctx context.Context, actor domain.Actor) ([]domain.Profile, error)
	CreateUser(ctx context.Context, actor domain.Actor, req *domain.CreateUserRequest) (*domain.Profile, error)
	UpdateUserRole(ctx context.Context, actor domain.Actor, targetID string, role domain.Role) (*domain.Profile, error)
	SoftDeleteUser(ctx context.Context, actor domain.Actor, targetID string) error
	UpdateOwnProfile(ctx context.Context, actor domain.Actor, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	UploadAvatar(ctx context.Context, actor domain.Actor, r io.Reader) (*domain.Profile, error)
}

type userService struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	avatars    AvatarStorage
	mailer     mailer.Service
	eventBus   events.Publisher
	config     *config.Config
}

func NewUserService(
	identities repository.IdentityRepository,
	profiles repository.ProfileRepository,
	avatars AvatarStorage,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) UserService {
	return &userService{
		identities: identities,
		profiles:   profiles,
		avatars:    avatars,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
	}
}

// ListUsers returns live profiles. Only a super admin sees super admin rows;
// this is a visibility filter applied after the fetch, not an access check.
func (s *userService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.Profile, error) {
	if err := policy.Authorize(actor, policy.UserList, nil); err != nil {
		return nil, err
	}

	all, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, domain.NetworkError("Failed to fetch users", err)
	}

	visible := make([]domain.Profile, 0, len(all))
	for _, p := range all {
		if p.IsDeleted() {
			continue
		}
		if p.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
			continue
		}
		visible = append(visible, p)
	}
	return visible, nil
}

// CreateUser provisions an identity and profile for someone else and mails them
// a temporary password.
func (s *userService) CreateUser(ctx context.Context, actor domain.Actor, req *domain.CreateUserRequest) (*domain.Profile, error) {
	if err := policy.Authorize(actor, policy.UserCreate, nil); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return nil, domain.NewError(domain.CodePermissionDenied, "Only a super admin can create super admins")
	}

	tempPassword, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	passwordHash, err := argon2id.CreateHash(tempPassword, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity, err := s.identities.Create(ctx, req.Email, passwordHash)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, domain.NewError(domain.CodeEmailExists, "An account with this email already exists")
	}
	if err != nil {
		return nil, domain.NetworkError("failed to create account", err)
	}

	createdBy := actor.ID
	profile, err := s.profiles.Insert(ctx, &domain.Profile{
		ID:            identity.ID,
		Username:      req.Username,
		Email:         identity.Email,
		Role:          req.Role,
		RoleProtected: req.Role == domain.RoleSuperAdmin && strings.EqualFold(identity.Email, s.config.Auth.SuperAdminEmail),
		AvatarURL:     req.AvatarURL,
		CreatedBy:     &createdBy,
	})
	if err != nil {
		return nil, domain.NetworkError("failed to create profile", err)
	}

	if err := s.mailer.SendCredentialsEmail(profile.Email, profile.Username, tempPassword, s.config.Email.LoginURL); err != nil {
		logger.WarnContext(ctx, "Failed to send credentials email", "error", err, "user_id", profile.ID)
	}

	publish(ctx, s.eventBus, events.UserCreated, events.UserCreatedEvent{
		UserID:    profile.ID,
		Email:     profile.Email,
		Role:      string(profile.Role),
		CreatedBy: actor.ID,
		CreatedAt: profile.CreatedAt,
	})
	return profile, nil
}

func (s *userService) UpdateUserRole(ctx context.Context, actor domain.Actor, targetID string, role domain.Role) (*domain.Profile, error) {
	target, err := s.authorizeTarget(ctx, actor, policy.UserRole, targetID)
	if err != nil {
		return nil, err
	}
	if err := domain.Validate(&domain.UpdateRoleRequest{Role: role}); err != nil {
		return nil, err
	}

	updated, err := s.profiles.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, domain.NetworkError("Failed to update role", err)
	}
	if updated == nil {
		return nil, domain.NotFound("user")
	}

	publish(ctx, s.eventBus, events.UserRoleChanged, events.UserRoleChangedEvent{
		UserID:    updated.ID,
		OldRole:   string(target.Role),
		NewRole:   string(updated.Role),
		ChangedBy: actor.ID,
		ChangedAt: time.Now(),
	})
	return updated, nil
}

func (s *userService) SoftDeleteUser(ctx context.Context, actor domain.Actor, targetID string) error {
	if _, err := s.authorizeTarget(ctx, actor, policy.UserDelete, targetID); err != nil {
		return err
	}

	deleted, err := s.profiles.SoftDelete(ctx, targetID, actor.ID)
	if err != nil {
		return domain.NetworkError("Failed to delete user", err)
	}
	if !deleted {
		return domain.NotFound("user")
	}

	publish(ctx, s.eventBus, events.UserDeleted, events.UserDeletedEvent{
		UserID:    targetID,
		DeletedBy: actor.ID,
		DeletedAt: time.Now(),
	})
	return nil
}

// UpdateOwnProfile lets self-registered users change their username and avatar.
func (s *userService) UpdateOwnProfile(ctx context.Context, actor domain.Actor, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	if _, err := s.ownProfile(ctx, actor); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, domain.ValidationError("nothing to update", "username", "avatar_url")
	}

	updated, err := s.profiles.UpdateProfile(ctx, actor.ID, req)
	if err != nil {
		return nil, domain.NetworkError("Failed to update profile", err)
	}
	if updated == nil {
		return nil, domain.NotFound("user")
	}
	return updated, nil
}

func (s *userService) UploadAvatar(ctx context.Context, actor domain.Actor, r io.Reader) (*domain.Profile, error) {
	if _, err := s.ownProfile(ctx, actor); err != nil {
		return nil, err
	}

	url, err := s.avatars.Save(ctx, actor.ID, r)
	if err != nil {
		if domain.CodeOf(err) != "" {
			return nil, err
		}
		return nil, domain.NetworkError("Failed to store avatar", err)
	}

	updated, err := s.profiles.UpdateProfile(ctx, actor.ID, &domain.UpdateProfileRequest{AvatarURL: &url})
	if err != nil {
		return nil, domain.NetworkError("Failed to update profile", err)
	}
	if updated == nil {
		return nil, domain.NotFound("user")
	}
	return updated, nil
}

func (s *userService) ownProfile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	if !actor.Authenticated() {
		return nil, policy.Authorize(actor, policy.ProfileUpdate, nil)
	}
	p, err := s.liveTarget(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProfileUpdate, policy.TargetOf(p)); err != nil {
		return nil, err
	}
	return p, nil
}

// authorizeTarget loads the target user and runs the policy against it. A
// missing target is only reported to callers the policy would let act on
// users at all, so non-admins cannot tell which ids exist.
func (s *userService) authorizeTarget(ctx context.Context, actor domain.Actor, action policy.Action, targetID string) (*domain.Profile, error) {
	if !actor.Authenticated() {
		return nil, policy.Authorize(actor, action, nil)
	}
	target, err := s.liveTarget(ctx, targetID)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			if aerr := policy.Authorize(actor, action, nil); aerr != nil {
				return nil, aerr
			}
		}
		return nil, err
	}
	if err := policy.Authorize(actor, action, policy.TargetOf(target)); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *userService) liveTarget(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, domain.NetworkError("Failed to load user", err)
	}
	if p == nil || p.IsDeleted() {
		return nil, domain.NotFound("user")
	}
	return p, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
