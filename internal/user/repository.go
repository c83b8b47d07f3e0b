package user

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

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// PushTokens returns nil for an unknown user.
	PushTokens(ctx context.Context, userID string) ([]string, error)
	// AddPushToken creates the user row when missing. Adding a known token is a no-op.
	AddPushToken(ctx context.Context, userID, displayName, token string) error
	RemovePushToken(ctx context.Context, userID, token string) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{
		pool: pool,
	}
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "display_name", "email", "phone", "fcm_tokens", "created_at", "updated_at").
		From("public.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query failed: %w", err)
	}

	var u User
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.DisplayName, &u.Email, &u.Phone, &u.PushTokens, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperror.Unavailable(fmt.Errorf("get user failed: %w", err))
	}
	return &u, nil
}

func (r *pgxUserRepository) PushTokens(ctx context.Context, userID string) ([]string, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u.PushTokens, nil
}

func (r *pgxUserRepository) AddPushToken(ctx context.Context, userID, displayName, token string) error {
	const query = `
		INSERT INTO public.users (id, display_name, fcm_tokens)
		VALUES ($1, $2, ARRAY[$3::text])
		ON CONFLICT (id) DO UPDATE SET
			fcm_tokens = CASE
				WHEN $3::text = ANY(users.fcm_tokens) THEN users.fcm_tokens
				ELSE array_append(users.fcm_tokens, $3::text)
			END,
			updated_at = now()
	`
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, query, userID, displayName, token); err != nil {
		return apperror.Unavailable(fmt.Errorf("add push token failed: %w", err))
	}
	return nil
}

func (r *pgxUserRepository) RemovePushToken(ctx context.Context, userID, token string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.users").
		Set("fcm_tokens", squirrel.Expr("array_remove(fcm_tokens, ?::text)", token)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove push token query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return apperror.Unavailable(fmt.Errorf("remove push token failed: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
