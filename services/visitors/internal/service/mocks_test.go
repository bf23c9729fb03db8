package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

// MockVisitorRepository implements repository.VisitorRepository for testing
type MockVisitorRepository struct {
	mock.Mock
}

func (m *MockVisitorRepository) Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	args := m.Called(ctx, v)
	out, _ := args.Get(0).(*domain.Visitor)
	return out, args.Error(1)
}

func (m *MockVisitorRepository) FindByID(ctx context.Context, id int64) (*domain.Visitor, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Visitor)
	return out, args.Error(1)
}

func (m *MockVisitorRepository) Update(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error) {
	args := m.Called(ctx, id, patch)
	out, _ := args.Get(0).(*domain.Visitor)
	return out, args.Error(1)
}

func (m *MockVisitorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitorRepository) List(ctx context.Context, q domain.VisitorQuery) ([]domain.VisitorView, int, error) {
	args := m.Called(ctx, q)
	out, _ := args.Get(0).([]domain.VisitorView)
	return out, args.Int(1), args.Error(2)
}

// MockIdentityRepository implements repository.IdentityRepository for testing
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, email, passwordHash string) (*domain.Identity, error) {
	args := m.Called(ctx, email, passwordHash)
	out, _ := args.Get(0).(*domain.Identity)
	return out, args.Error(1)
}

func (m *MockIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	args := m.Called(ctx, email)
	out, _ := args.Get(0).(*domain.Identity)
	return out, args.Error(1)
}

func (m *MockIdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Identity)
	return out, args.Error(1)
}

// MockProfileRepository implements repository.ProfileRepository for testing
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Profile)
	return out, args.Error(1)
}

func (m *MockProfileRepository) Insert(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(*domain.Profile)
	return out, args.Error(1)
}

func (m *MockProfileRepository) ListActive(ctx context.Context) ([]domain.Profile, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.Profile)
	return out, args.Error(1)
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	args := m.Called(ctx, id, role)
	out, _ := args.Get(0).(*domain.Profile)
	return out, args.Error(1)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	args := m.Called(ctx, id, req)
	out, _ := args.Get(0).(*domain.Profile)
	return out, args.Error(1)
}

func (m *MockProfileRepository) SoftDelete(ctx context.Context, id, deletedBy string) (bool, error) {
	args := m.Called(ctx, id, deletedBy)
	return args.Bool(0), args.Error(1)
}

// MockStatsRepository implements repository.StatsRepository for testing
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Count(ctx context.Context, f domain.CountFilter) (int, error) {
	args := m.Called(ctx, f)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	args := m.Called(ctx, from, to)
	out, _ := args.Get(0).([]time.Time)
	return out, args.Error(1)
}

func (m *MockStatsRepository) GenderCounts(ctx context.Context) (domain.GenderCounts, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(domain.GenderCounts)
	return out, args.Error(1)
}

func (m *MockStatsRepository) TopAddresses(ctx context.Context, limit int) ([]domain.AddressCount, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]domain.AddressCount)
	return out, args.Error(1)
}

func (m *MockStatsRepository) CompletedVisits(ctx context.Context) ([]domain.VisitTimes, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.VisitTimes)
	return out, args.Error(1)
}

func (m *MockStatsRepository) ActiveStaffCreators(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockMailer implements mailer.Service for testing
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcomeEmail(toEmail, username, loginURL string) error {
	return m.Called(toEmail, username, loginURL).Error(0)
}

func (m *MockMailer) SendCredentialsEmail(toEmail, username, tempPassword, loginURL string) error {
	return m.Called(toEmail, username, tempPassword, loginURL).Error(0)
}

// MockAvatarStorage implements AvatarStorage for testing
type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) Save(ctx context.Context, ownerID string, r io.Reader) (string, error) {
	args := m.Called(ctx, ownerID, r)
	return args.String(0), args.Error(1)
}

func ptr[T any](v T) *T {
	return &v
}
