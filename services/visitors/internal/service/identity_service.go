package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/diagnosis/visitor-desk/pkg/auth"
	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/pkg/logger"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/mailer"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
)

type IdentityService interface {
	// ResolveProfile returns the profile of an identity, creating it on first sight.
	ResolveProfile(ctx context.Context, identityID string) (*domain.Profile, error)
	SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthResponse, error)
	SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.AuthResponse, error)
}

type identityService struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	mailer     mailer.Service
	config     *config.Config
}

func NewIdentityService(
	identities repository.IdentityRepository,
	profiles repository.ProfileRepository,
	mailer mailer.Service,
	config *config.Config,
) IdentityService {
	return &identityService{
		identities: identities,
		profiles:   profiles,
		mailer:     mailer,
		config:     config,
	}
}

func (s *identityService) ResolveProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	return s.resolve(ctx, identityID, "")
}

// resolve looks the profile up and provisions it when missing. Concurrent first
// lookups may both try to insert; the loser re-reads the winner's row.
func (s *identityService) resolve(ctx context.Context, identityID, username string) (*domain.Profile, error) {
	p, err := s.profiles.FindByID(ctx, identityID)
	if err != nil {
		return nil, domain.NetworkError("failed to load profile", err)
	}
	if p != nil {
		return p, nil
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return nil, domain.NetworkError("failed to load identity", err)
	}
	if identity == nil {
		return nil, domain.NotFound("identity")
	}

	role := domain.RoleVisitor
	if s.isSuperAdminEmail(identity.Email) {
		role = domain.RoleSuperAdmin
	}
	if username == "" {
		username = domain.UsernameFromEmail(identity.Email)
	}

	created, err := s.profiles.Insert(ctx, &domain.Profile{
		ID:            identity.ID,
		Username:      username,
		Email:         identity.Email,
		Role:          role,
		RoleProtected: role == domain.RoleSuperAdmin,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		logger.DebugContext(ctx, "Profile created concurrently, re-reading", "identity_id", identityID)
		existing, err := s.profiles.FindByID(ctx, identityID)
		if err != nil {
			return nil, domain.NetworkError("failed to load profile", err)
		}
		if existing == nil {
			return nil, domain.NetworkError("failed to load profile", fmt.Errorf("profile %s vanished after duplicate insert", identityID))
		}
		return existing, nil
	}
	if err != nil {
		return nil, domain.NetworkError("failed to create profile", err)
	}

	logger.InfoContext(ctx, "Profile provisioned", "identity_id", identityID, "role", created.Role)
	return created, nil
}

func (s *identityService) SignUp(ctx context.Context, req *domain.SignUpRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
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

	profile, err := s.resolve(ctx, identity.ID, req.Username)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcomeEmail(profile.Email, profile.Username, s.config.Email.LoginURL); err != nil {
		logger.WarnContext(ctx, "Failed to send welcome email", "error", err, "user_id", profile.ID)
	}

	return s.issue(identity, profile)
}

func (s *identityService) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.NetworkError("failed to find account", err)
	}
	if identity == nil {
		return nil, domain.NewError(domain.CodeInvalidCredentials, "Invalid email or password")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.NewError(domain.CodeInvalidCredentials, "Invalid email or password")
	}

	// A profile lookup failure does not block sign-in; the next request retries it.
	profile, err := s.ResolveProfile(ctx, identity.ID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to resolve profile after sign in", "error", err, "user_id", identity.ID)
		profile = nil
	}
	if profile != nil && profile.IsDeleted() {
		return nil, domain.NewError(domain.CodeInvalidCredentials, "This account has been removed")
	}

	return s.issue(identity, profile)
}

func (s *identityService) issue(identity *domain.Identity, profile *domain.Profile) (*domain.AuthResponse, error) {
	role := ""
	if profile != nil {
		role = string(profile.Role)
	}
	token, err := auth.NewAccessToken(identity.ID, identity.Email, role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	return &domain.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		Profile:     profile,
	}, nil
}

func (s *identityService) isSuperAdminEmail(email string) bool {
	want := s.config.Auth.SuperAdminEmail
	return want != "" && strings.EqualFold(strings.TrimSpace(email), want)
}
