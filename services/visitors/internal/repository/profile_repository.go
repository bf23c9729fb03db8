package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

// ProfileRepository stores the role-bearing users table.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	Insert(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	ListActive(ctx context.Context) ([]domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	SoftDelete(ctx context.Context, id, deletedBy string) (bool, error)
}

type profileRepository struct {
	db DBInterface
}

func NewProfileRepository(db DBInterface) ProfileRepository {
	return &profileRepository{db: db}
}

var profileCols = []string{
	"id", "username", "email", "role", "role_protected", "avatar_url",
	"created_by", "deleted_at", "deleted_by", "created_at", "updated_at",
}

const profileReturning = "RETURNING id, username, email, role, role_protected, avatar_url, " +
	"created_by, deleted_at, deleted_by, created_at, updated_at"

// FindByID returns the profile whether or not it is soft-deleted; nil when absent.
func (r *profileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	query, args, err := psql.Select(profileCols...).From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

// Insert returns ErrDuplicate when a profile for the id already exists.
func (r *profileRepository) Insert(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	query, args, err := psql.Insert("users").
		Columns("id", "username", "email", "role", "role_protected", "avatar_url", "created_by").
		Values(p.ID, p.Username, p.Email, string(p.Role), p.RoleProtected, p.AvatarURL, p.CreatedBy).
		Suffix(profileReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out domain.Profile
	if err := pgxscan.Get(ctx, r.db, &out, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("inserting profile: %w", err)
	}
	return &out, nil
}

func (r *profileRepository) ListActive(ctx context.Context) ([]domain.Profile, error) {
	query, args, err := psql.Select(profileCols...).
		From("users").
		Where("deleted_at IS NULL").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var profiles []domain.Profile
	if err := pgxscan.Select(ctx, r.db, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("scanning profiles: %w", err)
	}
	return profiles, nil
}

// UpdateRole returns nil when no live profile has the id.
func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	query, args, err := psql.Update("users").
		Set("role", string(role)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Suffix(profileReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

// UpdateProfile writes the non-nil fields of req. An empty avatar URL clears it.
func (r *profileRepository) UpdateProfile(ctx context.Context, id string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	q := psql.Update("users").Set("updated_at", squirrel.Expr("now()"))
	if req.Username != nil {
		q = q.Set("username", *req.Username)
	}
	if req.AvatarURL != nil {
		if *req.AvatarURL == "" {
			q = q.Set("avatar_url", nil)
		} else {
			q = q.Set("avatar_url", *req.AvatarURL)
		}
	}
	query, args, err := q.Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Suffix(profileReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

// SoftDelete reports whether a live profile was marked deleted.
func (r *profileRepository) SoftDelete(ctx context.Context, id, deletedBy string) (bool, error) {
	query, args, err := psql.Update("users").
		Set("deleted_at", squirrel.Expr("now()")).
		Set("deleted_by", deletedBy).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building update query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("soft deleting profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *profileRepository) getOne(ctx context.Context, query string, args []any) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p domain.Profile
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &p, nil
}
