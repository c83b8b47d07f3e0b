package hall

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
)

// Repository defines data access methods for halls.
//
// The date methods each run as a single conditional statement, so they are
// safe to call concurrently and idempotent when repeated.
type Repository interface {
	Create(ctx context.Context, h *Hall) error
	GetByID(ctx context.Context, id string) (*Hall, error)
	// GetForUpdate locks the hall row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Hall, error)
	List(ctx context.Context, filter HallFilter) ([]*Hall, int, error)

	// ClaimDate moves date into BookedDates.
	ClaimDate(ctx context.Context, id, date string) error
	// ReleaseDate moves date out of BookedDates and back to AvailableDates
	// unless the owner has blocked it.
	ReleaseDate(ctx context.Context, id, date string) error
	// BlockDate fails with ErrDateBooked when the date is booked.
	BlockDate(ctx context.Context, id, date string) error
	UnblockDate(ctx context.Context, id, date string) error
}

var hallColumns = []string{
	"id", "owner_id", "name", "description", "address", "city", "capacity", "base_price", "is_active",
	"available_dates", "booked_dates", "blocked_dates", "created_at", "updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanHall(row pgx.Row, extra ...any) (*Hall, error) {
	var h Hall
	dest := []any{
		&h.ID, &h.OwnerID, &h.Name, &h.Description, &h.Address, &h.City, &h.Capacity, &h.BasePrice, &h.IsActive,
		&h.AvailableDates, &h.BookedDates, &h.BlockedDates, &h.CreatedAt, &h.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *pgxRepository) Create(ctx context.Context, h *Hall) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.halls").
		Columns(
			"owner_id", "name", "description", "address", "city", "capacity", "base_price", "is_active",
			"available_dates", "booked_dates", "blocked_dates",
		).
		Values(
			h.OwnerID, h.Name, h.Description, h.Address, h.City, h.Capacity, h.BasePrice, h.IsActive,
			nonNil(h.AvailableDates), nonNil(h.BookedDates), nonNil(h.BlockedDates),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create hall query failed: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("create hall failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) get(ctx context.Context, id string, forUpdate bool) (*Hall, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(hallColumns...).
		From("public.halls").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get hall query failed: %w", err)
	}

	h, err := scanHall(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Unavailable(fmt.Errorf("get hall failed: %w", err))
	}
	return h, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Hall, error) {
	return r.get(ctx, id, false)
}

func (r *pgxRepository) GetForUpdate(ctx context.Context, id string) (*Hall, error) {
	return r.get(ctx, id, true)
}

func (r *pgxRepository) List(ctx context.Context, filter HallFilter) ([]*Hall, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(hallColumns, "count(*) OVER() as total_count")...).
		From("public.halls")

	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"owner_id": filter.OwnerID})
	}
	if filter.City != "" {
		query = query.Where(squirrel.ILike{"city": filter.City})
	}
	if filter.Keyword != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Keyword + "%"})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("created_at DESC").Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list halls query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, apperror.Unavailable(fmt.Errorf("list halls failed: %w", err))
	}
	defer rows.Close()

	var halls []*Hall
	var total int

	for rows.Next() {
		h, err := scanHall(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan hall failed: %w", err)
		}
		halls = append(halls, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Unavailable(fmt.Errorf("list halls failed: %w", err))
	}

	return halls, total, nil
}

// updateDates runs a single UPDATE on the hall row and maps a miss to
// ErrNotFound (or to conflictErr when the row exists but the guard failed).
func (r *pgxRepository) updateDates(ctx context.Context, op, id string, builder squirrel.UpdateBuilder, conflictErr error) error {
	query, args, err := builder.Set("updated_at", squirrel.Expr("now()")).ToSql()
	if err != nil {
		return fmt.Errorf("build %s query failed: %w", op, err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("%s failed: %w", op, err))
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	if conflictErr != nil {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return conflictErr
	}
	return ErrNotFound
}

func (r *pgxRepository) ClaimDate(ctx context.Context, id, date string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Update("public.halls").
		Set("available_dates", squirrel.Expr("array_remove(available_dates, ?::text)", date)).
		Set("blocked_dates", squirrel.Expr("array_remove(blocked_dates, ?::text)", date)).
		Set("booked_dates", squirrel.Expr(
			"CASE WHEN ?::text = ANY(booked_dates) THEN booked_dates ELSE array_append(booked_dates, ?::text) END",
			date, date,
		)).
		Where(squirrel.Eq{"id": id})
	return r.updateDates(ctx, "claim date", id, builder, nil)
}

func (r *pgxRepository) ReleaseDate(ctx context.Context, id, date string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Update("public.halls").
		Set("booked_dates", squirrel.Expr("array_remove(booked_dates, ?::text)", date)).
		Set("available_dates", squirrel.Expr(
			"CASE WHEN ?::text = ANY(available_dates) OR ?::text = ANY(blocked_dates) THEN available_dates ELSE array_append(available_dates, ?::text) END",
			date, date, date,
		)).
		Where(squirrel.Eq{"id": id})
	return r.updateDates(ctx, "release date", id, builder, nil)
}

func (r *pgxRepository) BlockDate(ctx context.Context, id, date string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Update("public.halls").
		Set("available_dates", squirrel.Expr("array_remove(available_dates, ?::text)", date)).
		Set("blocked_dates", squirrel.Expr(
			"CASE WHEN ?::text = ANY(blocked_dates) THEN blocked_dates ELSE array_append(blocked_dates, ?::text) END",
			date, date,
		)).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("NOT (?::text = ANY(booked_dates))", date))
	return r.updateDates(ctx, "block date", id, builder, ErrDateBooked)
}

func (r *pgxRepository) UnblockDate(ctx context.Context, id, date string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Update("public.halls").
		Set("blocked_dates", squirrel.Expr("array_remove(blocked_dates, ?::text)", date)).
		Set("available_dates", squirrel.Expr(
			"CASE WHEN ?::text = ANY(available_dates) OR ?::text = ANY(booked_dates) THEN available_dates ELSE array_append(available_dates, ?::text) END",
			date, date, date,
		)).
		Where(squirrel.Eq{"id": id})
	return r.updateDates(ctx, "unblock date", id, builder, nil)
}

func nonNil(dates []string) []string {
	if dates == nil {
		return []string{}
	}
	return dates
}
