package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/appointly/appointly/internal/model"
)

const appointmentColumns = `
	a.id::text, a.business_id::text, a.service_id::text,
	a.customer_name, a.customer_email, COALESCE(a.customer_phone, ''),
	a.start_time, a.end_time, a.duration_minutes, a.price::text,
	a.status, a.origin, COALESCE(a.confirmation_token, ''), COALESCE(a.notes, ''),
	a.cancelled_at, COALESCE(a.cancellation_reason, ''), a.created_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.BusinessID, &a.ServiceID,
		&a.CustomerName, &a.CustomerEmail, &a.CustomerPhone,
		&a.StartTime, &a.EndTime, &a.DurationMinutes, &a.Price,
		&a.Status, &a.Origin, &a.ConfirmationToken, &a.Notes,
		&a.CancelledAt, &a.CancellationReason, &a.CreatedAt,
	)
	return a, err
}

// CreateAppointment inserts the row together with its buffered collision
// window. The exclusion constraint on (business_id, buffered range) turns a
// lost validate-then-commit race into a 23P01 error (see IsConflict).
func (r *Repository) CreateAppointment(ctx context.Context, a model.Appointment, bufferBefore, bufferAfter int) (string, error) {
	id := uuid.NewString()
	blockStart := a.StartTime.Add(-time.Duration(bufferBefore) * time.Minute)
	blockEnd := a.EndTime.Add(time.Duration(bufferAfter) * time.Minute)

	var token *string
	if a.ConfirmationToken != "" {
		token = &a.ConfirmationToken
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO appointments
			(id, business_id, service_id, customer_name, customer_email, customer_phone,
			 start_time, end_time, block_start, block_end, duration_minutes, price,
			 status, origin, confirmation_token, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''),
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, NULLIF($16, ''))
	`, id, a.BusinessID, a.ServiceID, a.CustomerName, a.CustomerEmail, a.CustomerPhone,
		a.StartTime, a.EndTime, blockStart, blockEnd, a.DurationMinutes, a.Price,
		string(a.Status), string(a.Origin), token, a.Notes)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetAppointment(ctx context.Context, businessID, appointmentID string) (model.Appointment, error) {
	return scanAppointment(r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.business_id = $1 AND a.id = $2
	`, businessID, appointmentID))
}

// GetAppointmentForUpdate locks the row for a status transition or edit.
func (r *Repository) GetAppointmentForUpdate(ctx context.Context, businessID, appointmentID string) (model.Appointment, error) {
	return scanAppointment(r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.business_id = $1 AND a.id = $2
		FOR UPDATE
	`, businessID, appointmentID))
}

// GetAppointmentByToken locks the customer booking identified by its
// confirmation token.
func (r *Repository) GetAppointmentByToken(ctx context.Context, token string) (model.Appointment, error) {
	return scanAppointment(r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.confirmation_token = $1
		FOR UPDATE
	`, token))
}

func (r *Repository) ListAppointments(ctx context.Context, businessID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.business_id = $1
		ORDER BY a.start_time DESC
		LIMIT $2
	`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListBookedIntervals returns the buffered windows of every non-cancelled
// appointment whose own time range falls near [from, to). Each row carries the
// buffers of the service it was booked with; appointments whose service row
// was deleted get zero buffers.
func (r *Repository) ListBookedIntervals(ctx context.Context, businessID string, from, to time.Time, forUpdate bool) ([]model.BookedInterval, error) {
	q := `
		SELECT a.id::text, a.start_time, a.end_time,
			COALESCE(s.buffer_before_minutes, 0), COALESCE(s.buffer_after_minutes, 0)
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.business_id = $1
			AND a.status <> 'cancelled'
			AND a.cancelled_at IS NULL
			AND a.start_time < $3
			AND a.end_time > $2
		ORDER BY a.start_time ASC`
	if forUpdate {
		// Locks the business's open appointment rows so the validator re-run
		// inside the booking transaction cannot interleave with a concurrent
		// writer of the same window.
		q += `
		FOR UPDATE OF a`
	}
	rows, err := r.q.Query(ctx, q, businessID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookedInterval
	for rows.Next() {
		var b model.BookedInterval
		if err := rows.Scan(&b.AppointmentID, &b.Start, &b.End, &b.BufferBefore, &b.BufferAfter); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateAppointmentSchedule rewrites time, service, price and customer fields
// after an owner edit passed validation. The buffered window moves with it.
func (r *Repository) UpdateAppointmentSchedule(ctx context.Context, a model.Appointment, bufferBefore, bufferAfter int) error {
	blockStart := a.StartTime.Add(-time.Duration(bufferBefore) * time.Minute)
	blockEnd := a.EndTime.Add(time.Duration(bufferAfter) * time.Minute)

	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET service_id = $3,
			start_time = $4,
			end_time = $5,
			block_start = $6,
			block_end = $7,
			duration_minutes = $8,
			price = $9,
			customer_name = $10,
			customer_email = $11,
			customer_phone = NULLIF($12, ''),
			notes = NULLIF($13, '')
		WHERE business_id = $1 AND id = $2
	`, a.BusinessID, a.ID, a.ServiceID, a.StartTime, a.EndTime, blockStart, blockEnd,
		a.DurationMinutes, a.Price, a.CustomerName, a.CustomerEmail, a.CustomerPhone, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) UpdateAppointmentStatus(ctx context.Context, businessID, appointmentID string, status model.Status) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = $3
		WHERE business_id = $1 AND id = $2
	`, businessID, appointmentID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) UpdateAppointmentNotes(ctx context.Context, businessID, appointmentID, notes string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET notes = NULLIF($3, '')
		WHERE business_id = $1 AND id = $2
	`, businessID, appointmentID, notes)
	return err
}

// CancelAppointment marks the row cancelled and stamps cancelled_at. The
// partial exclusion constraint ignores cancelled rows, freeing the window.
func (r *Repository) CancelAppointment(ctx context.Context, businessID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := r.q.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = NULLIF($3, '')
		WHERE business_id = $1 AND id = $2
		RETURNING cancelled_at
	`, businessID, appointmentID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *Repository) DeleteAppointment(ctx context.Context, businessID, appointmentID string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM appointments WHERE business_id = $1 AND id = $2
	`, businessID, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AutoCompleteSweep promotes every confirmed appointment of the business whose
// end has passed to completed. It runs before list/mutation paths so that
// "completed" stays a derived, lazily materialized state with an explicit
// write, never a hidden one inside a read.
func (r *Repository) AutoCompleteSweep(ctx context.Context, businessID string, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed'
		WHERE business_id = $1
			AND status = 'confirmed'
			AND cancelled_at IS NULL
			AND end_time <= $2
	`, businessID, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
