// Package lifecycle holds the pure appointment state-machine rules. Nothing
// here touches storage; callers persist the outcomes.
package lifecycle

import (
	"time"

	"github.com/appointly/appointly/internal/model"
)

// Denial explains why a transition is not allowed. Like a validation
// rejection it is data for the caller, not a system error.
type Denial struct {
	Code   string
	Reason string
}

const (
	DenyNotFound      = "not_found"
	DenyAlreadyFinal  = "already_final"
	DenyWrongStatus   = "wrong_status"
	DenyNotFuture     = "not_future"
	DenyCustomerOwned = "customer_owned"
)

func deny(code, reason string) *Denial {
	return &Denial{Code: code, Reason: reason}
}

// Reconcile derives the status an appointment should hold at now. A confirmed
// appointment whose end has passed becomes completed; everything else is
// unchanged. Idempotent: reconciling a completed appointment changes nothing.
func Reconcile(a model.Appointment, now time.Time) (model.Status, bool) {
	if a.Status == model.StatusConfirmed && !a.EndTime.After(now) {
		return model.StatusCompleted, true
	}
	return a.Status, false
}

// ConfirmOutcome is the result of presenting a confirmation token.
type ConfirmOutcome struct {
	Status  model.Status
	Changed bool
}

// Confirm resolves a token presentation against the appointment's current
// status. Presenting the same link twice is not an error: an appointment that
// is already confirmed, or has since completed, reports success unchanged.
func Confirm(a model.Appointment) (ConfirmOutcome, *Denial) {
	switch a.Status {
	case model.StatusPending:
		return ConfirmOutcome{Status: model.StatusConfirmed, Changed: true}, nil
	case model.StatusConfirmed, model.StatusCompleted:
		return ConfirmOutcome{Status: a.Status, Changed: false}, nil
	case model.StatusCancelled:
		return ConfirmOutcome{}, deny(DenyAlreadyFinal, "This appointment has been cancelled.")
	default:
		return ConfirmOutcome{}, deny(DenyWrongStatus, "This appointment can no longer be confirmed.")
	}
}

// CanCancel allows cancellation from pending or confirmed only.
func CanCancel(a model.Appointment) *Denial {
	switch a.Status {
	case model.StatusPending, model.StatusConfirmed:
		return nil
	case model.StatusCancelled:
		return deny(DenyAlreadyFinal, "This appointment is already cancelled.")
	default:
		return deny(DenyWrongStatus, "Only pending or confirmed appointments can be cancelled.")
	}
}

// CanMarkNoShow allows the no-show flag only on a completed appointment: the
// scheduled time has passed and the customer did not turn up. Each disallowed
// status gets its own reason so the owner UI can say why.
func CanMarkNoShow(a model.Appointment) *Denial {
	switch a.Status {
	case model.StatusCompleted:
		return nil
	case model.StatusPending:
		return deny(DenyWrongStatus, "A pending appointment cannot be marked as a no-show.")
	case model.StatusConfirmed:
		return deny(DenyWrongStatus, "The appointment has not finished yet.")
	case model.StatusCancelled:
		return deny(DenyAlreadyFinal, "A cancelled appointment cannot be marked as a no-show.")
	case model.StatusNoShow:
		return deny(DenyAlreadyFinal, "This appointment is already marked as a no-show.")
	default:
		return deny(DenyWrongStatus, "This appointment cannot be marked as a no-show.")
	}
}

// CanHardDelete allows permanent removal only of a confirmed appointment that
// has not started. Past appointments stay on record; pending ones are
// cancelled instead so the customer's link keeps resolving.
func CanHardDelete(a model.Appointment, now time.Time) *Denial {
	if a.Status != model.StatusConfirmed {
		return deny(DenyWrongStatus, "Only confirmed appointments can be deleted.")
	}
	if !a.StartTime.After(now) {
		return deny(DenyNotFuture, "Past appointments cannot be deleted.")
	}
	return nil
}

// CanSetStatus gates a manual status edit. Confirming a pending booking is
// the only real transition; re-stating the current status is a no-op.
// Nothing moves back to pending, and cancellation, completion and no-show
// have their own endpoints.
func CanSetStatus(a model.Appointment, next model.Status) *Denial {
	if next == a.Status {
		return nil
	}
	if a.Status == model.StatusPending && next == model.StatusConfirmed {
		return nil
	}
	return deny(DenyWrongStatus, "The only manual status change is confirming a pending appointment.")
}

// EditScope says which fields an owner edit may touch.
type EditScope int

const (
	EditNone EditScope = iota
	EditStatusOnly
	EditFull
)

// CanEdit returns the allowed edit scope. Completed, cancelled and no-show
// appointments are read-only. Customer-originated bookings keep their
// customer-entered details; the owner may only move their status.
func CanEdit(a model.Appointment) (EditScope, *Denial) {
	switch a.Status {
	case model.StatusPending, model.StatusConfirmed:
	default:
		return EditNone, deny(DenyWrongStatus, "Only pending or confirmed appointments can be edited.")
	}
	if a.Origin == model.OriginCustomer {
		return EditStatusOnly, nil
	}
	return EditFull, nil
}
