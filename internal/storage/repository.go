package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appointly/appointly/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// method works identically inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
	q    querier
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// WithTx returns a view of the repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, q: tx}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsConflict reports whether err is the exclusion-constraint violation raised
// when two transactions race for overlapping buffered windows.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsRestricted reports a foreign-key restriction, e.g. deleting a service
// that historical appointments still reference.
func IsRestricted(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// -------------------- businesses --------------------

func (r *Repository) GetBusiness(ctx context.Context, id string) (model.Business, error) {
	var b model.Business
	err := r.q.QueryRow(ctx, `
		SELECT id::text, owner_account_id, name, slug, timezone_id, phone, address,
			onboarding_complete, created_at
		FROM businesses
		WHERE id = $1
	`, id).Scan(&b.ID, &b.OwnerAccountID, &b.Name, &b.Slug, &b.TimeZoneID, &b.Phone,
		&b.Address, &b.OnboardingComplete, &b.CreatedAt)
	return b, err
}

func (r *Repository) CreateBusiness(ctx context.Context, b model.Business) (string, error) {
	id := uuid.NewString()
	_, err := r.q.Exec(ctx, `
		INSERT INTO businesses (id, owner_account_id, name, slug, timezone_id, phone, address, onboarding_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, b.OwnerAccountID, b.Name, b.Slug, b.TimeZoneID, b.Phone, b.Address, b.OnboardingComplete)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateBusiness(ctx context.Context, b model.Business) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE businesses
		SET name = $2,
			timezone_id = $3,
			phone = $4,
			address = $5,
			onboarding_complete = $6
		WHERE id = $1
	`, b.ID, b.Name, b.TimeZoneID, b.Phone, b.Address, b.OnboardingComplete)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// -------------------- services --------------------

func (r *Repository) GetService(ctx context.Context, businessID, serviceID string) (model.Service, error) {
	var s model.Service
	err := r.q.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price::text,
			buffer_before_minutes, buffer_after_minutes, is_active, created_at
		FROM services
		WHERE business_id = $1 AND id = $2
	`, businessID, serviceID).Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes,
		&s.Price, &s.BufferBefore, &s.BufferAfter, &s.Active, &s.CreatedAt)
	return s, err
}

func (r *Repository) CreateService(ctx context.Context, s model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.q.Exec(ctx, `
		INSERT INTO services
			(id, business_id, name, duration_minutes, price, buffer_before_minutes, buffer_after_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, s.BusinessID, s.Name, s.DurationMinutes, s.Price, s.BufferBefore, s.BufferAfter, s.Active)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateService(ctx context.Context, s model.Service) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE services
		SET name = $3,
			duration_minutes = $4,
			price = $5,
			buffer_before_minutes = $6,
			buffer_after_minutes = $7,
			is_active = $8
		WHERE business_id = $1 AND id = $2
	`, s.BusinessID, s.ID, s.Name, s.DurationMinutes, s.Price, s.BufferBefore, s.BufferAfter, s.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteService removes a service outright. Callers should fall back to
// DeactivateService when IsRestricted(err): appointments keep their service
// reference for the historical record.
func (r *Repository) DeleteService(ctx context.Context, businessID, serviceID string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM services WHERE business_id = $1 AND id = $2
	`, businessID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeactivateService(ctx context.Context, businessID, serviceID string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE services SET is_active = FALSE WHERE business_id = $1 AND id = $2
	`, businessID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListServices(ctx context.Context, businessID string, activeOnly bool) ([]model.Service, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price::text,
			buffer_before_minutes, buffer_after_minutes, is_active, created_at
		FROM services
		WHERE business_id = $1 AND (NOT $2 OR is_active)
		ORDER BY name ASC
	`, businessID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes,
			&s.Price, &s.BufferBefore, &s.BufferAfter, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// -------------------- booking policy --------------------

func (r *Repository) GetBookingPolicy(ctx context.Context, businessID string) (model.BookingPolicy, error) {
	var p model.BookingPolicy
	err := r.q.QueryRow(ctx, `
		SELECT business_id::text, slot_interval_minutes, advance_notice_minutes,
			cancellation_window_minutes, max_advance_days
		FROM booking_policies
		WHERE business_id = $1
	`, businessID).Scan(&p.BusinessID, &p.SlotIntervalMinutes, &p.AdvanceNoticeMinutes,
		&p.CancellationWindowMinutes, &p.MaxAdvanceDays)
	return p, err
}

func (r *Repository) UpsertBookingPolicy(ctx context.Context, p model.BookingPolicy) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO booking_policies
			(business_id, slot_interval_minutes, advance_notice_minutes, cancellation_window_minutes, max_advance_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (business_id) DO UPDATE
		SET slot_interval_minutes = EXCLUDED.slot_interval_minutes,
			advance_notice_minutes = EXCLUDED.advance_notice_minutes,
			cancellation_window_minutes = EXCLUDED.cancellation_window_minutes,
			max_advance_days = EXCLUDED.max_advance_days
	`, p.BusinessID, p.SlotIntervalMinutes, p.AdvanceNoticeMinutes, p.CancellationWindowMinutes, p.MaxAdvanceDays)
	return err
}

// -------------------- working hours --------------------

func (r *Repository) GetWorkingHours(ctx context.Context, businessID string, weekday model.Weekday) (model.WorkingHours, error) {
	var wh model.WorkingHours
	err := r.q.QueryRow(ctx, `
		SELECT business_id::text, weekday, is_closed, COALESCE(open_minute, 0), COALESCE(close_minute, 0)
		FROM working_hours
		WHERE business_id = $1 AND weekday = $2
	`, businessID, int(weekday)).Scan(&wh.BusinessID, &wh.Weekday, &wh.Closed, &wh.OpenMinute, &wh.CloseMinute)
	return wh, err
}

func (r *Repository) ListWorkingHours(ctx context.Context, businessID string) ([]model.WorkingHours, error) {
	rows, err := r.q.Query(ctx, `
		SELECT business_id::text, weekday, is_closed, COALESCE(open_minute, 0), COALESCE(close_minute, 0)
		FROM working_hours
		WHERE business_id = $1
		ORDER BY weekday ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkingHours
	for rows.Next() {
		var wh model.WorkingHours
		if err := rows.Scan(&wh.BusinessID, &wh.Weekday, &wh.Closed, &wh.OpenMinute, &wh.CloseMinute); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *Repository) UpsertWorkingHours(ctx context.Context, wh model.WorkingHours) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO working_hours (business_id, weekday, is_closed, open_minute, close_minute)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (business_id, weekday) DO UPDATE
		SET is_closed = EXCLUDED.is_closed,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute
	`, wh.BusinessID, int(wh.Weekday), wh.Closed, wh.OpenMinute, wh.CloseMinute)
	return err
}

// -------------------- time off --------------------

func (r *Repository) CreateTimeOff(ctx context.Context, t model.TimeOff) (string, error) {
	id := uuid.NewString()
	_, err := r.q.Exec(ctx, `
		INSERT INTO time_off (id, business_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, t.BusinessID, t.StartTime, t.EndTime, t.Reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListTimeOffBetween returns every time-off block intersecting [from, to).
// Blocks may overlap each other; callers union them.
func (r *Repository) ListTimeOffBetween(ctx context.Context, businessID string, from, to time.Time) ([]model.TimeOff, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, business_id::text, start_time, end_time, COALESCE(reason, ''), created_at
		FROM time_off
		WHERE business_id = $1
			AND end_time > $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeOff
	for rows.Next() {
		var t model.TimeOff
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.StartTime, &t.EndTime, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteTimeOff(ctx context.Context, businessID, timeOffID string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM time_off WHERE business_id = $1 AND id = $2
	`, businessID, timeOffID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
