package lifecycle

import (
	"testing"
	"time"

	"github.com/appointly/appointly/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func appt(status model.Status, start, end time.Time) model.Appointment {
	return model.Appointment{ID: "appt-1", Status: status, StartTime: start, EndTime: end}
}

func TestReconcile(t *testing.T) {
	past := appt(model.StatusConfirmed, now.Add(-2*time.Hour), now.Add(-time.Hour))
	status, changed := Reconcile(past, now)
	if status != model.StatusCompleted || !changed {
		t.Fatalf("expected confirmed past appointment to complete, got %s changed=%v", status, changed)
	}

	// Idempotent on the result.
	past.Status = status
	if status, changed = Reconcile(past, now); changed || status != model.StatusCompleted {
		t.Fatalf("second reconcile must be a no-op, got %s changed=%v", status, changed)
	}

	// End exactly at now counts as finished.
	edge := appt(model.StatusConfirmed, now.Add(-time.Hour), now)
	if status, changed = Reconcile(edge, now); status != model.StatusCompleted || !changed {
		t.Fatalf("end == now must complete, got %s changed=%v", status, changed)
	}

	for _, s := range []model.Status{model.StatusPending, model.StatusCancelled, model.StatusNoShow} {
		a := appt(s, now.Add(-2*time.Hour), now.Add(-time.Hour))
		if status, changed = Reconcile(a, now); changed || status != s {
			t.Fatalf("%s must not auto-complete, got %s changed=%v", s, status, changed)
		}
	}

	future := appt(model.StatusConfirmed, now.Add(time.Hour), now.Add(2*time.Hour))
	if status, changed = Reconcile(future, now); changed || status != model.StatusConfirmed {
		t.Fatalf("future confirmed must stay confirmed, got %s changed=%v", status, changed)
	}
}

func TestConfirm(t *testing.T) {
	out, denial := Confirm(appt(model.StatusPending, now, now.Add(time.Hour)))
	if denial != nil || out.Status != model.StatusConfirmed || !out.Changed {
		t.Fatalf("pending must confirm, got %+v denial=%v", out, denial)
	}

	// Re-presenting the link is idempotent, including after completion.
	for _, s := range []model.Status{model.StatusConfirmed, model.StatusCompleted} {
		out, denial = Confirm(appt(s, now, now.Add(time.Hour)))
		if denial != nil || out.Changed || out.Status != s {
			t.Fatalf("%s confirm must be an unchanged success, got %+v denial=%v", s, out, denial)
		}
	}

	if _, denial = Confirm(appt(model.StatusCancelled, now, now.Add(time.Hour))); denial == nil || denial.Code != DenyAlreadyFinal {
		t.Fatalf("cancelled confirm must be denied, got %v", denial)
	}
	if _, denial = Confirm(appt(model.StatusNoShow, now, now.Add(time.Hour))); denial == nil {
		t.Fatal("no-show confirm must be denied")
	}
}

func TestCanSetStatus(t *testing.T) {
	if d := CanSetStatus(appt(model.StatusPending, now, now.Add(time.Hour)), model.StatusConfirmed); d != nil {
		t.Fatalf("pending -> confirmed must be allowed, got %v", d)
	}
	for _, s := range []model.Status{model.StatusPending, model.StatusConfirmed} {
		if d := CanSetStatus(appt(s, now, now.Add(time.Hour)), s); d != nil {
			t.Fatalf("restating %s must be a no-op, got %v", s, d)
		}
	}
	if d := CanSetStatus(appt(model.StatusConfirmed, now, now.Add(time.Hour)), model.StatusPending); d == nil || d.Code != DenyWrongStatus {
		t.Fatalf("confirmed must not move back to pending, got %v", d)
	}
	for _, next := range []model.Status{model.StatusCancelled, model.StatusCompleted, model.StatusNoShow} {
		if d := CanSetStatus(appt(model.StatusConfirmed, now, now.Add(time.Hour)), next); d == nil {
			t.Fatalf("manual edit to %s must be denied", next)
		}
	}
}

func TestCanCancel(t *testing.T) {
	for _, s := range []model.Status{model.StatusPending, model.StatusConfirmed} {
		if d := CanCancel(appt(s, now, now.Add(time.Hour))); d != nil {
			t.Fatalf("%s must be cancellable, got %v", s, d)
		}
	}
	if d := CanCancel(appt(model.StatusCancelled, now, now.Add(time.Hour))); d == nil || d.Code != DenyAlreadyFinal {
		t.Fatalf("double cancel must be denied as final, got %v", d)
	}
	for _, s := range []model.Status{model.StatusCompleted, model.StatusNoShow} {
		if d := CanCancel(appt(s, now, now.Add(time.Hour))); d == nil || d.Code != DenyWrongStatus {
			t.Fatalf("%s cancel must be denied, got %v", s, d)
		}
	}
}

func TestCanMarkNoShow(t *testing.T) {
	if d := CanMarkNoShow(appt(model.StatusCompleted, now, now.Add(time.Hour))); d != nil {
		t.Fatalf("completed must allow no-show, got %v", d)
	}

	// Every disallowed status carries its own reason text.
	denied := map[model.Status]string{}
	for _, s := range []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusNoShow} {
		d := CanMarkNoShow(appt(s, now, now.Add(time.Hour)))
		if d == nil {
			t.Fatalf("%s must deny no-show", s)
		}
		denied[s] = d.Reason
	}
	seen := map[string]model.Status{}
	for s, reason := range denied {
		if prev, ok := seen[reason]; ok {
			t.Fatalf("statuses %s and %s share reason %q", prev, s, reason)
		}
		seen[reason] = s
	}
}

func TestCanHardDelete(t *testing.T) {
	if d := CanHardDelete(appt(model.StatusConfirmed, now.Add(time.Hour), now.Add(2*time.Hour)), now); d != nil {
		t.Fatalf("future confirmed must be deletable, got %v", d)
	}
	if d := CanHardDelete(appt(model.StatusConfirmed, now.Add(-time.Hour), now), now); d == nil || d.Code != DenyNotFuture {
		t.Fatalf("past confirmed delete must be denied, got %v", d)
	}
	if d := CanHardDelete(appt(model.StatusConfirmed, now, now.Add(time.Hour)), now); d == nil {
		t.Fatal("start exactly at now is not future, must be denied")
	}
	for _, s := range []model.Status{model.StatusPending, model.StatusCompleted, model.StatusCancelled, model.StatusNoShow} {
		if d := CanHardDelete(appt(s, now.Add(time.Hour), now.Add(2*time.Hour)), now); d == nil || d.Code != DenyWrongStatus {
			t.Fatalf("%s delete must be denied, got %v", s, d)
		}
	}
}

func TestCanEdit(t *testing.T) {
	owner := appt(model.StatusConfirmed, now, now.Add(time.Hour))
	owner.Origin = model.OriginOwner
	if scope, d := CanEdit(owner); d != nil || scope != EditFull {
		t.Fatalf("owner-origin confirmed must allow full edit, got %v denial=%v", scope, d)
	}

	customer := owner
	customer.Origin = model.OriginCustomer
	if scope, d := CanEdit(customer); d != nil || scope != EditStatusOnly {
		t.Fatalf("customer-origin must be status-only, got %v denial=%v", scope, d)
	}

	for _, s := range []model.Status{model.StatusCompleted, model.StatusCancelled, model.StatusNoShow} {
		a := owner
		a.Status = s
		if scope, d := CanEdit(a); d == nil || scope != EditNone {
			t.Fatalf("%s must be read-only, got %v denial=%v", s, scope, d)
		}
	}
}
