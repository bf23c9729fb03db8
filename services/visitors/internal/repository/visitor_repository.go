package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/diagnosis/visitor-desk/internal/utils"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error)
	FindByID(ctx context.Context, id int64) (*domain.Visitor, error)
	Update(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, q domain.VisitorQuery) ([]domain.VisitorView, int, error)
}

type visitorRepository struct {
	db DBInterface
}

func NewVisitorRepository(db DBInterface) VisitorRepository {
	return &visitorRepository{db: db}
}

var visitorCols = []string{
	"id", "fullname", "phone_number", "gender", "address", "visiting", "reason",
	"time_in", "time_out", "notes", "user_id", "created_at",
}

const visitorReturning = "RETURNING id, fullname, phone_number, gender, address, visiting, reason, " +
	"time_in, time_out, notes, user_id, created_at"

// visitorRow is a visitor joined with its creator's profile, if any.
type visitorRow struct {
	domain.Visitor
	CreatorUsername *string `db:"creator_username"`
	CreatorRole     *string `db:"creator_role"`
}

func (row visitorRow) view() domain.VisitorView {
	v := domain.VisitorView{Visitor: row.Visitor}
	if row.UserID != nil && row.CreatorUsername != nil && row.CreatorRole != nil {
		v.CreatedBy = domain.Creator{Username: *row.CreatorUsername, Role: domain.Role(*row.CreatorRole)}
	}
	return v
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	query, args, err := psql.Insert("visitors").
		Columns("fullname", "phone_number", "gender", "address", "visiting", "reason",
			"time_in", "time_out", "notes", "user_id").
		Values(v.FullName, v.PhoneNumber, string(v.Gender), v.Address, v.Visiting, v.Reason,
			v.TimeIn, v.TimeOut, v.Notes, v.UserID).
		Suffix(visitorReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out domain.Visitor
	if err := pgxscan.Get(ctx, r.db, &out, query, args...); err != nil {
		return nil, fmt.Errorf("inserting visitor: %w", err)
	}
	return &out, nil
}

func (r *visitorRepository) FindByID(ctx context.Context, id int64) (*domain.Visitor, error) {
	query, args, err := psql.Select(visitorCols...).From("visitors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

// Update applies the patch and returns the stored row, or nil when the id is unknown.
// The patch must touch at least one column.
func (r *visitorRepository) Update(ctx context.Context, id int64, patch *domain.VisitorPatch) (*domain.Visitor, error) {
	q := psql.Update("visitors")
	set := func(col string, v *string) {
		if v != nil {
			q = q.Set(col, *v)
		}
	}
	set("fullname", patch.FullName)
	set("phone_number", patch.PhoneNumber)
	if patch.Gender != nil {
		q = q.Set("gender", string(*patch.Gender))
	}
	set("address", patch.Address)
	set("visiting", patch.Visiting)
	set("reason", patch.Reason)
	set("time_in", patch.TimeIn)
	if patch.ClearTimeOut {
		q = q.Set("time_out", nil)
	} else {
		set("time_out", patch.TimeOut)
	}
	if patch.ClearNotes {
		q = q.Set("notes", nil)
	} else {
		set("notes", patch.Notes)
	}

	query, args, err := q.Where(squirrel.Eq{"id": id}).Suffix(visitorReturning).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

// Delete reports whether a row was removed. Removing a missing id is not an error.
func (r *visitorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query, args, err := psql.Delete("visitors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("building delete query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting visitor: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns one page of visitors, newest first, with the total matching count.
func (r *visitorRepository) List(ctx context.Context, q domain.VisitorQuery) ([]domain.VisitorView, int, error) {
	where := visitorConditions(q.Filter)

	countBuilder := psql.Select("COUNT(*)").From("visitors v")
	if len(where) > 0 {
		countBuilder = countBuilder.Where(where)
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}

	cols := make([]string, 0, len(visitorCols)+2)
	for _, c := range visitorCols {
		cols = append(cols, "v."+c)
	}
	cols = append(cols, "u.username AS creator_username", "u.role AS creator_role")

	listBuilder := psql.Select(cols...).
		From("visitors v").
		LeftJoin("users u ON u.id = v.user_id")
	if len(where) > 0 {
		listBuilder = listBuilder.Where(where)
	}
	listQuery, listArgs, err := listBuilder.
		OrderBy("v.created_at DESC", "v.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building select query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting visitors: %w", err)
	}

	var rows []visitorRow
	if err := pgxscan.Select(ctx, r.db, &rows, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("scanning visitors: %w", err)
	}

	views := make([]domain.VisitorView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, total, nil
}

func visitorConditions(f domain.VisitorFilter) squirrel.And {
	where := squirrel.And{}
	if term := utils.SearchTerm(f.Search); term != "" {
		pattern := "%" + utils.EscapeLike(term) + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"v.fullname": pattern},
			squirrel.ILike{"v.phone_number": pattern},
			squirrel.ILike{"v.address": pattern},
		})
	}
	if f.Gender != "" {
		where = append(where, squirrel.Eq{"v.gender": string(f.Gender)})
	}
	if f.Address != "" {
		where = append(where, squirrel.Eq{"v.address": f.Address})
	}
	if f.DateEnabled && !f.Dates.Start.IsZero() && !f.Dates.End.IsZero() {
		from, to := f.Dates.Bounds(nil)
		where = append(where,
			squirrel.GtOrEq{"v.created_at": from},
			squirrel.Lt{"v.created_at": to},
		)
	}
	return where
}

func (r *visitorRepository) getOne(ctx context.Context, query string, args []any) (*domain.Visitor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v domain.Visitor
	if err := pgxscan.Get(ctx, r.db, &v, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning visitor: %w", err)
	}
	return &v, nil
}
