package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

// IdentityRepository stores the authentication records profiles hang off.
type IdentityRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
}

type identityRepository struct {
	db DBInterface
}

func NewIdentityRepository(db DBInterface) IdentityRepository {
	return &identityRepository{db: db}
}

var identityCols = []string{"id", "email", "password_hash", "created_at"}

func (r *identityRepository) Create(ctx context.Context, email, passwordHash string) (*domain.Identity, error) {
	query, args, err := psql.Insert("identities").
		Columns("id", "email", "password_hash").
		Values(uuid.NewString(), email, passwordHash).
		Suffix("RETURNING id, email, password_hash, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id domain.Identity
	if err := pgxscan.Get(ctx, r.db, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("inserting identity: %w", err)
	}
	return &id, nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, squirrel.Expr("lower(email) = lower(?)", email))
}

func (r *identityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

func (r *identityRepository) findOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Identity, error) {
	query, args, err := psql.Select(identityCols...).From("identities").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id domain.Identity
	if err := pgxscan.Get(ctx, r.db, &id, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning identity: %w", err)
	}
	return &id, nil
}
