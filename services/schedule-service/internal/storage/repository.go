package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sourcegraph/conc/pool"

	"github.com/slotboard/slotboard/libs/db"
	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(dbPool *db.Pool) *Repository {
	return &Repository{pool: dbPool}
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- availability rules ----

func (r *Repository) CreateRule(ctx context.Context, rule *model.AvailabilityRule) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (provider_id, selected_dates, start_time, end_time)
		VALUES ($1, $2::date[], $3, $4)
		RETURNING id
	`, rule.ProviderID, rule.SelectedDates, rule.StartTime, rule.EndTime).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListRules returns the provider's rules newest-first. The id tie-break keeps
// the order stable for rows created in the same transaction.
func (r *Repository) ListRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, selected_dates, start_time::text, end_time::text, created_at, updated_at
		FROM availability_rules
		WHERE provider_id = $1
		ORDER BY created_at DESC, id DESC
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		if err := rows.Scan(
			&rule.ID,
			&rule.ProviderID,
			&rule.SelectedDates,
			&rule.StartTime,
			&rule.EndTime,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *Repository) GetRule(ctx context.Context, providerID, ruleID string) (model.AvailabilityRule, error) {
	var rule model.AvailabilityRule
	err := r.pool.QueryRow(ctx, `
		SELECT id, provider_id, selected_dates, start_time::text, end_time::text, created_at, updated_at
		FROM availability_rules
		WHERE id = $1 AND provider_id = $2
	`, ruleID, providerID).Scan(
		&rule.ID,
		&rule.ProviderID,
		&rule.SelectedDates,
		&rule.StartTime,
		&rule.EndTime,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return model.AvailabilityRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the rule's date list and window. An empty date list
// deletes the rule instead of leaving an unreachable row behind.
func (r *Repository) UpdateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	if len(rule.SelectedDates) == 0 {
		return r.DeleteRule(ctx, rule.ProviderID, rule.ID)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_rules
		SET selected_dates = $3::date[],
			start_time = $4,
			end_time = $5,
			updated_at = now()
		WHERE id = $1 AND provider_id = $2
	`, rule.ID, rule.ProviderID, rule.SelectedDates, rule.StartTime, rule.EndTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteRule(ctx context.Context, providerID, ruleID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1 AND provider_id = $2
	`, ruleID, providerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DatesAlreadyCovered reports whether any of the given dates already appears
// in another rule of the same provider. excludeRuleID may be empty on create.
func (r *Repository) DatesAlreadyCovered(ctx context.Context, providerID string, dates []time.Time, excludeRuleID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM availability_rules
			WHERE provider_id = $1
				AND ($3 = '' OR id::text <> $3)
				AND selected_dates && $2::date[]
		)
	`, providerID, dates, excludeRuleID).Scan(&exists)
	return exists, err
}

// RuleCovers reports whether some rule claims the date and its window fully
// contains [startHMS, endHMS]. Time columns compare as times, which matches
// lexicographic HH:MM:SS ordering.
func (r *Repository) RuleCovers(ctx context.Context, providerID string, date time.Time, startHMS, endHMS string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
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

// ---- availability overrides ----

func (r *Repository) CreateOverride(ctx context.Context, o *model.AvailabilityOverride) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO availability_overrides (provider_id, override_date, start_time, end_time, is_available)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		RETURNING id
	`, o.ProviderID, o.OverrideDate, o.StartTime, o.EndTime, o.IsAvailable).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListOverrides(ctx context.Context, providerID string) ([]model.AvailabilityOverride, error) {
	return r.queryOverrides(ctx, `
		SELECT id, provider_id, override_date, COALESCE(start_time::text, ''), COALESCE(end_time::text, ''), is_available, created_at
		FROM availability_overrides
		WHERE provider_id = $1
		ORDER BY override_date ASC, created_at ASC
	`, providerID)
}

func (r *Repository) ListOverridesInRange(ctx context.Context, providerID string, from, to time.Time) ([]model.AvailabilityOverride, error) {
	return r.queryOverrides(ctx, `
		SELECT id, provider_id, override_date, COALESCE(start_time::text, ''), COALESCE(end_time::text, ''), is_available, created_at
		FROM availability_overrides
		WHERE provider_id = $1 AND override_date >= $2 AND override_date < $3
		ORDER BY override_date ASC, created_at ASC
	`, providerID, from, to)
}

// GetOverrideForDate returns the override for the exact date, if any. With
// duplicates the newest row wins, matching the engine's in-memory index.
func (r *Repository) GetOverrideForDate(ctx context.Context, providerID string, date time.Time) (model.AvailabilityOverride, bool, error) {
	overrides, err := r.queryOverrides(ctx, `
		SELECT id, provider_id, override_date, COALESCE(start_time::text, ''), COALESCE(end_time::text, ''), is_available, created_at
		FROM availability_overrides
		WHERE provider_id = $1 AND override_date = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, providerID, date)
	if err != nil {
		return model.AvailabilityOverride{}, false, err
	}
	if len(overrides) == 0 {
		return model.AvailabilityOverride{}, false, nil
	}
	return overrides[0], true, nil
}

func (r *Repository) DeleteOverride(ctx context.Context, providerID, overrideID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_overrides
		WHERE id = $1 AND provider_id = $2
	`, overrideID, providerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) queryOverrides(ctx context.Context, sql string, args ...any) ([]model.AvailabilityOverride, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []model.AvailabilityOverride
	for rows.Next() {
		var o model.AvailabilityOverride
		if err := rows.Scan(
			&o.ID,
			&o.ProviderID,
			&o.OverrideDate,
			&o.StartTime,
			&o.EndTime,
			&o.IsAvailable,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// ---- blocked dates ----

func (r *Repository) CreateBlocked(ctx context.Context, b *model.BlockedDate) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_dates (provider_id, blocked_date, reason)
		VALUES ($1, $2, $3)
		RETURNING id
	`, b.ProviderID, b.BlockedDate, b.Reason).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListBlocked(ctx context.Context, providerID string) ([]model.BlockedDate, error) {
	return r.queryBlocked(ctx, `
		SELECT id, provider_id, blocked_date, COALESCE(reason, ''), created_at
		FROM blocked_dates
		WHERE provider_id = $1
		ORDER BY blocked_date ASC
	`, providerID)
}

func (r *Repository) ListBlockedInRange(ctx context.Context, providerID string, from, to time.Time) ([]model.BlockedDate, error) {
	return r.queryBlocked(ctx, `
		SELECT id, provider_id, blocked_date, COALESCE(reason, ''), created_at
		FROM blocked_dates
		WHERE provider_id = $1 AND blocked_date >= $2 AND blocked_date < $3
		ORDER BY blocked_date ASC
	`, providerID, from, to)
}

func (r *Repository) DeleteBlocked(ctx context.Context, providerID, blockedID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_dates
		WHERE id = $1 AND provider_id = $2
	`, blockedID, providerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) queryBlocked(ctx context.Context, sql string, args ...any) ([]model.BlockedDate, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocked []model.BlockedDate
	for rows.Next() {
		var b model.BlockedDate
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.BlockedDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

// ---- bookings (read model) ----

// ListConfirmedBookings selects confirmed bookings whose start falls inside
// [from, to). Bookings hang off the day they start on, so a booking that
// spills past midnight still belongs to its start date.
func (r *Repository) ListConfirmedBookings(ctx context.Context, providerID string, from, to time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, user_id, COALESCE(service_id::text, ''), start_time, end_time, status
		FROM bookings
		WHERE provider_id = $1
			AND status = 'confirmed'
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.UserID, &b.ServiceID, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Snapshot loads everything the calendar engine needs for one provider and
// month in four parallel reads.
func (r *Repository) Snapshot(ctx context.Context, providerID string, monthStart, monthEnd time.Time) (schedule.Snapshot, error) {
	var snap schedule.Snapshot

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		rules, err := r.ListRules(ctx, providerID)
		snap.Rules = rules
		return err
	})
	p.Go(func(ctx context.Context) error {
		overrides, err := r.ListOverridesInRange(ctx, providerID, monthStart, monthEnd)
		snap.Overrides = overrides
		return err
	})
	p.Go(func(ctx context.Context) error {
		blocked, err := r.ListBlockedInRange(ctx, providerID, monthStart, monthEnd)
		snap.Blocked = blocked
		return err
	})
	p.Go(func(ctx context.Context) error {
		bookings, err := r.ListConfirmedBookings(ctx, providerID, monthStart, monthEnd)
		snap.Bookings = bookings
		return err
	})
	if err := p.Wait(); err != nil {
		return schedule.Snapshot{}, err
	}
	return snap, nil
}
