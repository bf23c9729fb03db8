package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

// StatsRepository runs the aggregate queries behind the dashboard.
type StatsRepository interface {
	Count(ctx context.Context, f domain.CountFilter) (int, error)
	CreatedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error)
	GenderCounts(ctx context.Context) (domain.GenderCounts, error)
	TopAddresses(ctx context.Context, limit int) ([]domain.AddressCount, error)
	CompletedVisits(ctx context.Context) ([]domain.VisitTimes, error)
	ActiveStaffCreators(ctx context.Context) (int, error)
}

type statsRepository struct {
	db DBInterface
}

func NewStatsRepository(db DBInterface) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Count(ctx context.Context, f domain.CountFilter) (int, error) {
	q := psql.Select("COUNT(*)").From("visitors")
	if f.Gender != "" {
		q = q.Where(squirrel.Eq{"gender": string(f.Gender)})
	}
	if !f.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.Lt{"created_at": f.To})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visitors: %w", err)
	}
	return n, nil
}

// CreatedBetween returns created_at of every visitor in [from, to).
func (r *statsRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	query, args, err := psql.Select("created_at").
		From("visitors").
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []time.Time
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("scanning visitor timestamps: %w", err)
	}
	return out, nil
}

func (r *statsRepository) GenderCounts(ctx context.Context) (domain.GenderCounts, error) {
	query, args, err := psql.Select("gender", "COUNT(*) AS count").
		From("visitors").
		GroupBy("gender").
		ToSql()
	if err != nil {
		return domain.GenderCounts{}, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []struct {
		Gender string `db:"gender"`
		Count  int    `db:"count"`
	}
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return domain.GenderCounts{}, fmt.Errorf("scanning gender counts: %w", err)
	}

	var out domain.GenderCounts
	for _, row := range rows {
		switch domain.Gender(row.Gender) {
		case domain.GenderMale:
			out.Male = row.Count
		case domain.GenderFemale:
			out.Female = row.Count
		}
	}
	return out, nil
}

func (r *statsRepository) TopAddresses(ctx context.Context, limit int) ([]domain.AddressCount, error) {
	query, args, err := psql.Select("address", "COUNT(*) AS count").
		From("visitors").
		Where(squirrel.NotEq{"address": ""}).
		GroupBy("address").
		OrderBy("count DESC", "address ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []domain.AddressCount
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("scanning top addresses: %w", err)
	}
	return out, nil
}

// CompletedVisits returns the clock pairs of visits with both times recorded.
func (r *statsRepository) CompletedVisits(ctx context.Context) ([]domain.VisitTimes, error) {
	query, args, err := psql.Select("time_in", "time_out").
		From("visitors").
		Where("time_out IS NOT NULL").
		Where(squirrel.NotEq{"time_in": ""}).
		Where(squirrel.NotEq{"time_out": ""}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []domain.VisitTimes
	if err := pgxscan.Select(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("scanning visit times: %w", err)
	}
	return out, nil
}

// ActiveStaffCreators counts distinct staff members who have logged a visitor.
func (r *statsRepository) ActiveStaffCreators(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(DISTINCT v.user_id)").
		From("visitors v").
		Join("users u ON u.id = v.user_id").
		Where(squirrel.Eq{"u.role": []string{
			string(domain.RoleSuperAdmin), string(domain.RoleAdmin), string(domain.RoleReceptionist),
		}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting active staff: %w", err)
	}
	return n, nil
}
