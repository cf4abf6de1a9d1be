package model

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Origin records who created the appointment. Customer bookings carry a
// confirmation token and are restricted to status-only edits by the owner.
type Origin string

const (
	OriginCustomer Origin = "customer"
	OriginOwner    Origin = "owner"
)

// BookedInterval is the projection of an existing appointment the scheduling
// engine needs for collision math: its time range plus the buffers of the
// service it was booked for (zero when the service row is gone).
type BookedInterval struct {
	AppointmentID string
	Start         time.Time
	End           time.Time
	BufferBefore  int
	BufferAfter   int
}

type Appointment struct {
	ID                 string
	BusinessID         string
	ServiceID          string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	StartTime          time.Time
	EndTime            time.Time
	DurationMinutes    int
	Price              string
	Status             Status
	Origin             Origin
	ConfirmationToken  string
	Notes              string
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
}
