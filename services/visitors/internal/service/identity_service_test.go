package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/visitor-desk/pkg/auth"
	"github.com/diagnosis/visitor-desk/pkg/config"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			SuperAdminEmail: "root@visitordesk.test",
		},
		Email: config.EmailConfig{LoginURL: "http://localhost:5173/login"},
	}
}

func TestIdentityService_ResolveProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Should return an existing profile", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		profiles.On("FindByID", ctx, "id-1").Return(&domain.Profile{ID: "id-1", Role: domain.RoleAdmin}, nil)

		p, err := svc.ResolveProfile(ctx, "id-1")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, p.Role)
		identities.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("Should provision a visitor profile on first sight", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		profiles.On("FindByID", ctx, "id-2").Return(nil, nil)
		identities.On("FindByID", ctx, "id-2").Return(&domain.Identity{ID: "id-2", Email: "amina@example.com"}, nil)
		profiles.On("Insert", ctx, mock.MatchedBy(func(p *domain.Profile) bool {
			return p.Username == "amina" && p.Role == domain.RoleVisitor && p.CreatedBy == nil && !p.RoleProtected
		})).Return(&domain.Profile{ID: "id-2", Username: "amina", Role: domain.RoleVisitor}, nil)

		p, err := svc.ResolveProfile(ctx, "id-2")
		require.NoError(t, err)
		assert.Equal(t, "amina", p.Username)
		profiles.AssertExpectations(t)
	})

	t.Run("Should make the configured email a protected super admin", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		profiles.On("FindByID", ctx, "root").Return(nil, nil)
		identities.On("FindByID", ctx, "root").Return(&domain.Identity{ID: "root", Email: "Root@VisitorDesk.test"}, nil)
		profiles.On("Insert", ctx, mock.MatchedBy(func(p *domain.Profile) bool {
			return p.Role == domain.RoleSuperAdmin && p.RoleProtected
		})).Return(&domain.Profile{ID: "root", Role: domain.RoleSuperAdmin, RoleProtected: true}, nil)

		p, err := svc.ResolveProfile(ctx, "root")
		require.NoError(t, err)
		assert.True(t, p.RoleProtected)
	})

	t.Run("Should re-read the row when a concurrent login inserted it first", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		winner := &domain.Profile{ID: "id-3", Username: "farah", Role: domain.RoleVisitor}
		profiles.On("FindByID", ctx, "id-3").Return(nil, nil).Once()
		identities.On("FindByID", ctx, "id-3").Return(&domain.Identity{ID: "id-3", Email: "farah@example.com"}, nil)
		profiles.On("Insert", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)
		profiles.On("FindByID", ctx, "id-3").Return(winner, nil).Once()

		p, err := svc.ResolveProfile(ctx, "id-3")
		require.NoError(t, err)
		assert.Same(t, winner, p)
		profiles.AssertNumberOfCalls(t, "Insert", 1)
	})

	t.Run("Should report an unknown identity", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		profiles.On("FindByID", ctx, "ghost").Return(nil, nil)
		identities.On("FindByID", ctx, "ghost").Return(nil, nil)

		_, err := svc.ResolveProfile(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Should surface store failures as network errors", func(t *testing.T) {
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(new(MockIdentityRepository), profiles, new(MockMailer), testConfig())

		profiles.On("FindByID", ctx, "id-4").Return(nil, errors.New("timeout"))
		_, err := svc.ResolveProfile(ctx, "id-4")
		assert.ErrorIs(t, err, domain.ErrNetwork)
	})
}

func TestIdentityService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create the account, send a welcome mail and issue a token", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		mailer := new(MockMailer)
		cfg := testConfig()
		svc := NewIdentityService(identities, profiles, mailer, cfg)

		identity := &domain.Identity{ID: "new-1", Email: "hodan@example.com"}
		identities.On("Create", ctx, "hodan@example.com", mock.AnythingOfType("string")).Return(identity, nil)
		profiles.On("FindByID", ctx, "new-1").Return(nil, nil)
		identities.On("FindByID", ctx, "new-1").Return(identity, nil)
		profiles.On("Insert", ctx, mock.Anything).Return(&domain.Profile{ID: "new-1", Email: "hodan@example.com", Username: "hodan", Role: domain.RoleVisitor}, nil)
		mailer.On("SendWelcomeEmail", "hodan@example.com", "hodan", cfg.Email.LoginURL).Return(errors.New("smtp down"))

		resp, err := svc.SignUp(ctx, &domain.SignUpRequest{Email: " Hodan@Example.com ", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, int64(900), resp.ExpiresIn)

		claims, err := auth.Parse(resp.AccessToken, cfg.Auth.JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "new-1", claims.Sub)
		assert.Equal(t, string(domain.RoleVisitor), claims.Role)
		mailer.AssertExpectations(t)
	})

	t.Run("Should report a taken email", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		svc := NewIdentityService(identities, new(MockProfileRepository), new(MockMailer), testConfig())

		identities.On("Create", ctx, "taken@example.com", mock.Anything).Return(nil, repository.ErrDuplicate)
		_, err := svc.SignUp(ctx, &domain.SignUpRequest{Email: "taken@example.com", Password: "long enough"})
		assert.ErrorIs(t, err, domain.ErrEmailExists)
	})

	t.Run("Should validate before hashing", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		svc := NewIdentityService(identities, new(MockProfileRepository), new(MockMailer), testConfig())

		_, err := svc.SignUp(ctx, &domain.SignUpRequest{Email: "not-an-email", Password: "short"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		identities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestIdentityService_SignIn(t *testing.T) {
	ctx := context.Background()
	hash, err := argon2id.CreateHash("s3cret-pass", argon2id.DefaultParams)
	require.NoError(t, err)
	identity := &domain.Identity{ID: "id-9", Email: "staff@example.com", PasswordHash: hash}

	t.Run("Should sign in with the right password", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		identities.On("FindByEmail", ctx, "staff@example.com").Return(identity, nil)
		profiles.On("FindByID", ctx, "id-9").Return(&domain.Profile{ID: "id-9", Role: domain.RoleReceptionist}, nil)

		resp, err := svc.SignIn(ctx, &domain.SignInRequest{Email: "staff@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleReceptionist, resp.Profile.Role)
	})

	t.Run("Should reject a wrong password or unknown email alike", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		svc := NewIdentityService(identities, new(MockProfileRepository), new(MockMailer), testConfig())

		identities.On("FindByEmail", ctx, "staff@example.com").Return(identity, nil)
		identities.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)

		_, err := svc.SignIn(ctx, &domain.SignInRequest{Email: "staff@example.com", Password: "guess"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		_, err = svc.SignIn(ctx, &domain.SignInRequest{Email: "nobody@example.com", Password: "guess"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Should still sign in when the profile lookup fails", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		identities.On("FindByEmail", ctx, "staff@example.com").Return(identity, nil)
		profiles.On("FindByID", ctx, "id-9").Return(nil, errors.New("db offline"))

		resp, err := svc.SignIn(ctx, &domain.SignInRequest{Email: "staff@example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Nil(t, resp.Profile)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("Should refuse removed accounts", func(t *testing.T) {
		identities := new(MockIdentityRepository)
		profiles := new(MockProfileRepository)
		svc := NewIdentityService(identities, profiles, new(MockMailer), testConfig())

		now := time.Now()
		identities.On("FindByEmail", ctx, "staff@example.com").Return(identity, nil)
		profiles.On("FindByID", ctx, "id-9").Return(&domain.Profile{ID: "id-9", Role: domain.RoleAdmin, DeletedAt: &now}, nil)

		_, err := svc.SignIn(ctx, &domain.SignInRequest{Email: "staff@example.com", Password: "s3cret-pass"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
