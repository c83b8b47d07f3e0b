package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/hall-booking-backend/internal/db"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/calendar"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// HasConflict reports whether an active booking holds the slot.
	// excludeBookingID is used during confirmation to ignore the booking itself.
	HasConflict(ctx context.Context, hallID, date, excludeBookingID string) (bool, error)
	// ListBySlot returns the slot's bookings in the given statuses, oldest first
	// (createdAt, then id).
	ListBySlot(ctx context.Context, hallID, date string, statuses ...Status) ([]*Booking, error)
	// ListByDate returns every booking on date with the given status across all halls.
	ListByDate(ctx context.Context, date string, status Status) ([]*Booking, error)

	// UpdateStatus writes the status fields of b only if the stored status is
	// still from. It returns ErrStatusChanged when another writer got there first.
	UpdateStatus(ctx context.Context, b *Booking, from Status) error
	UpdateFields(ctx context.Context, b *Booking) error

	ListStalePending(ctx context.Context, createdBefore time.Time) ([]*Booking, error)
	// ExpirePending cancels the listed bookings that are still pending in one
	// statement and returns the rows it changed.
	ExpirePending(ctx context.Context, ids []string, reason string, at time.Time) ([]*Booking, error)

	Summarize(ctx context.Context, filter SummaryFilter) (*Summary, error)
}

var bookingColumns = []string{
	"id", "hall_id", "hall_name", "date", "status",
	"customer_name", "customer_phone", "customer_email", "user_id",
	"event_type", "guest_count", "dietary_preference", "special_requests",
	"total_amount", "advance_amount", "advance_paid", "discount",
	"notes", "coalesce(cancellation_reason, '')", "created_at", "updated_at", "cancelled_at",
}

var sortColumns = map[string]string{
	"date":         "date",
	"created_at":   "created_at",
	"total_amount": "total_amount",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.HallID, &b.HallName, &b.Date, &b.Status,
		&b.Customer.Name, &b.Customer.Phone, &b.Customer.Email, &b.Customer.UserID,
		&b.Details.EventType, &b.Details.GuestCount, &b.Details.DietaryPreference, &b.Details.SpecialRequests,
		&b.Financials.TotalAmount, &b.Financials.AdvanceAmount, &b.Financials.AdvancePaid, &b.Financials.Discount,
		&b.Notes, &b.CancellationReason, &b.CreatedAt, &b.UpdatedAt, &b.CancelledAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows, op string) ([]*Booking, error) {
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("%s failed: %w", op, err))
	}
	return bookings, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"hall_id", "hall_name", "date", "status",
			"customer_name", "customer_phone", "customer_email", "user_id",
			"event_type", "guest_count", "dietary_preference", "special_requests",
			"total_amount", "advance_amount", "advance_paid", "discount",
			"notes", "cancellation_reason", "created_at", "updated_at", "cancelled_at",
		).
		Values(
			b.HallID, b.HallName, b.Date, b.Status,
			b.Customer.Name, b.Customer.Phone, b.Customer.Email, b.Customer.UserID,
			b.Details.EventType, b.Details.GuestCount, b.Details.DietaryPreference, b.Details.SpecialRequests,
			b.Financials.TotalAmount, b.Financials.AdvanceAmount, b.Financials.AdvancePaid, b.Financials.Discount,
			b.Notes, nullIfEmpty(b.CancellationReason), b.CreatedAt, b.UpdatedAt, b.CancelledAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return ErrDateUnavailable
			case pgerrcode.ForeignKeyViolation:
				return ErrHallNotFound
			}
		}
		return apperror.Unavailable(fmt.Errorf("create booking failed: %w", err))
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Unavailable(fmt.Errorf("get booking failed: %w", err))
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings")

	if filter.HallID != "" {
		query = query.Where(squirrel.Eq{"hall_id": filter.HallID})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if len(filter.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if filter.Date != "" {
		query = query.Where(squirrel.Eq{"date": filter.Date})
	}
	if filter.DateFrom != "" {
		query = query.Where(squirrel.GtOrEq{"date": filter.DateFrom})
	}
	if filter.DateBefore != "" {
		query = query.Where(squirrel.Lt{"date": filter.DateBefore})
	}

	// Sorting
	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "date"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "created_at "+orderDir, "id")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, apperror.Unavailable(fmt.Errorf("list bookings failed: %w", err))
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Unavailable(fmt.Errorf("list bookings failed: %w", err))
	}

	return bookings, total, nil
}

func (r *pgxRepository) HasConflict(ctx context.Context, hallID, date, excludeBookingID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"hall_id": hallID}).
		Where(squirrel.Eq{"date": date}).
		Where(squirrel.Eq{"status": []Status{StatusPending, StatusConfirmed}})

	if excludeBookingID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeBookingID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check conflict query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&exists)
	if err != nil {
		return false, apperror.Unavailable(fmt.Errorf("check conflict failed: %w", err))
	}
	return exists, nil
}

func (r *pgxRepository) ListBySlot(ctx context.Context, hallID, date string, statuses ...Status) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"hall_id": hallID}).
		Where(squirrel.Eq{"date": date}).
		OrderBy("created_at ASC", "id ASC")
	if len(statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"status": statuses})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slot bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("list slot bookings failed: %w", err))
	}
	return collectBookings(rows, "list slot bookings")
}

func (r *pgxRepository) ListByDate(ctx context.Context, date string, status Status) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"date": date}).
		Where(squirrel.Eq{"status": status}).
		OrderBy("hall_id", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings by date query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("list bookings by date failed: %w", err))
	}
	return collectBookings(rows, "list bookings by date")
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking, from Status) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("cancellation_reason", nullIfEmpty(b.CancellationReason)).
		Set("cancelled_at", b.CancelledAt).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking status query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDateUnavailable
		}
		return apperror.Unavailable(fmt.Errorf("update booking status failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
		return ErrStatusChanged
	}
	return nil
}

func (r *pgxRepository) UpdateFields(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("customer_name", b.Customer.Name).
		Set("customer_phone", b.Customer.Phone).
		Set("total_amount", b.Financials.TotalAmount).
		Set("advance_amount", b.Financials.AdvanceAmount).
		Set("advance_paid", b.Financials.AdvancePaid).
		Set("discount", b.Financials.Discount).
		Set("notes", b.Notes).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("update booking failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListStalePending(ctx context.Context, createdBefore time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"status": StatusPending}).
		Where(squirrel.Lt{"created_at": createdBefore}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list stale bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("list stale bookings failed: %w", err))
	}
	return collectBookings(rows, "list stale bookings")
}

func (r *pgxRepository) ExpirePending(ctx context.Context, ids []string, reason string, at time.Time) ([]*Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"status": StatusPending}).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expire bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("expire bookings failed: %w", err))
	}
	return collectBookings(rows, "expire bookings")
}

func (r *pgxRepository) Summarize(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(
		"count(*)",
		"count(*) FILTER (WHERE status IN ('confirmed', 'completed'))",
		"count(*) FILTER (WHERE status = 'cancelled')",
		"coalesce(sum(total_amount) FILTER (WHERE status IN ('confirmed', 'completed')), 0)::bigint",
		"coalesce(sum(advance_amount) FILTER (WHERE status IN ('confirmed', 'completed')), 0)::bigint",
		"coalesce(sum(advance_amount) FILTER (WHERE status IN ('confirmed', 'completed') AND advance_paid), 0)::bigint",
	).
		From("public.bookings").
		Where(squirrel.Eq{"hall_id": filter.HallID})

	if prefix := summaryPrefix(filter); prefix != "" {
		builder = builder.Where(squirrel.Like{"date": prefix + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summarize bookings query failed: %w", err)
	}

	var s Summary
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&s.TotalBookings, &s.ConfirmedBookings, &s.CancelledBookings,
		&s.TotalRevenue, &s.AdvanceAmount, &s.AdvanceCollected,
	)
	if err != nil {
		return nil, apperror.Unavailable(fmt.Errorf("summarize bookings failed: %w", err))
	}
	return &s, nil
}

// summaryPrefix narrows a summary to a year or month of "YYYY-MM-DD" dates.
func summaryPrefix(filter SummaryFilter) string {
	return calendar.MonthPrefix(filter.Year, filter.Month)
}
