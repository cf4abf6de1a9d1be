package outbox

import (
	"encoding/json"
	"time"

	"github.com/appointly/appointly/internal/model"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventAppointmentRequested   = "booking.appointment.requested.v1"
	EventAppointmentConfirmed   = "booking.appointment.confirmed.v1"
	EventAppointmentCancelled   = "booking.appointment.cancelled.v1"
	EventAppointmentRescheduled = "booking.appointment.rescheduled.v1"
)

// AppointmentPayload is the wire body shared by all appointment events.
// Times are UTC instants; consumers localize with the business's zone.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	BusinessID    string    `json:"business_id"`
	ServiceID     string    `json:"service_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Origin        string    `json:"origin"`
	// PreviousStart/End are set on reschedule events only.
	PreviousStart *time.Time `json:"previous_start,omitempty"`
	PreviousEnd   *time.Time `json:"previous_end,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func appointmentEvent(eventType string, a model.Appointment, mutate func(*AppointmentPayload)) Event {
	p := AppointmentPayload{
		AppointmentID: a.ID,
		BusinessID:    a.BusinessID,
		ServiceID:     a.ServiceID,
		CustomerName:  a.CustomerName,
		CustomerEmail: a.CustomerEmail,
		StartTime:     a.StartTime.UTC(),
		EndTime:       a.EndTime.UTC(),
		Status:        string(a.Status),
		Origin:        string(a.Origin),
		OccurredAt:    time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&p)
	}
	body, _ := json.Marshal(p)
	return Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       body,
	}
}

func AppointmentRequested(a model.Appointment) Event {
	return appointmentEvent(EventAppointmentRequested, a, nil)
}

func AppointmentConfirmed(a model.Appointment) Event {
	return appointmentEvent(EventAppointmentConfirmed, a, nil)
}

func AppointmentCancelled(a model.Appointment, reason string) Event {
	return appointmentEvent(EventAppointmentCancelled, a, func(p *AppointmentPayload) {
		p.Reason = reason
	})
}

func AppointmentRescheduled(a model.Appointment, previousStart, previousEnd time.Time) Event {
	return appointmentEvent(EventAppointmentRescheduled, a, func(p *AppointmentPayload) {
		ps, pe := previousStart.UTC(), previousEnd.UTC()
		p.PreviousStart = &ps
		p.PreviousEnd = &pe
	})
}
