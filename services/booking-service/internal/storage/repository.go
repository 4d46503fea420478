package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slotboard/slotboard/libs/db"
	"github.com/slotboard/slotboard/services/booking-service/internal/model"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// RuleCovers reports whether any availability rule claims the booking's date
// and its window fully contains it. Runs inside the booking transaction so
// the rule cannot change between check and insert.
func (r *Repository) RuleCovers(ctx context.Context, tx pgx.Tx, providerID string, date time.Time, startHMS, endHMS string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM availability_rules
			WHERE provider_id = $1
				AND $2::date = ANY(selected_dates)
				AND start_time <= $3::time
				AND end_time >= $4::time
		)
	`, providerID, date, startHMS, endHMS).Scan(&exists)
	return exists, err
}

// OverrideAvailable reports whether an override exists for the date and
// whether it opens the day. The override's times are not read here.
func (r *Repository) OverrideAvailable(ctx context.Context, tx pgx.Tx, providerID string, date time.Time) (exists bool, available bool, err error) {
	err = tx.QueryRow(ctx, `
		SELECT is_available
		FROM availability_overrides
		WHERE provider_id = $1 AND override_date = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, providerID, date).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, available, nil
}

// HasActiveOverlap reports whether a pending or confirmed booking intersects
// the requested interval.
func (r *Repository) HasActiveOverlap(ctx context.Context, tx pgx.Tx, providerID string, start, end time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE provider_id = $1
				AND status IN ('pending', 'confirmed')
				AND start_time < $3
				AND end_time > $2
		)
	`, providerID, start, end).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings (provider_id, user_id, service_id, start_time, end_time, status)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6)
		RETURNING id
	`, b.ProviderID, b.UserID, b.ServiceID, b.StartTime, b.EndTime, b.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, tx pgx.Tx, providerID, bookingID string) (model.Booking, error) {
	var b model.Booking
	err := tx.QueryRow(ctx, `
		SELECT id, provider_id, user_id, COALESCE(service_id::text, ''), start_time, end_time, status, cancelled_at, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND provider_id = $2
		FOR UPDATE
	`, bookingID, providerID).Scan(
		&b.ID,
		&b.ProviderID,
		&b.UserID,
		&b.ServiceID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func (r *Repository) SetStatus(ctx context.Context, tx pgx.Tx, bookingID string, status model.BookingStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN now() ELSE cancelled_at END,
			updated_at = now()
		WHERE id = $1
	`, bookingID, status)
	return err
}

func (r *Repository) ListByProvider(ctx context.Context, providerID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, user_id, COALESCE(service_id::text, ''), start_time, end_time, status, cancelled_at, created_at, updated_at
		FROM bookings
		WHERE provider_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ProviderID,
			&b.UserID,
			&b.ServiceID,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&b.CancelledAt,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListElapsedConfirmed locks confirmed bookings whose end has passed so the
// sweeper can complete them.
func (r *Repository) ListElapsedConfirmed(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]model.Booking, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, provider_id, user_id, COALESCE(service_id::text, ''), start_time, end_time, status, cancelled_at, created_at, updated_at
		FROM bookings
		WHERE status = 'confirmed' AND end_time <= $1
		ORDER BY end_time
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ProviderID,
			&b.UserID,
			&b.ServiceID,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&b.CancelledAt,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
