package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/appointly/appointly/internal/model"
)

func validateReq(f *fakeStore, start, end time.Time) ValidateRequest {
	return ValidateRequest{
		Business:   f.business,
		Service:    f.services["svc-1"],
		StartLocal: start,
		EndLocal:   end,
		NowUTC:     testNow,
	}
}

func mustAccept(t *testing.T, e *Engine, req ValidateRequest) {
	t.Helper()
	rej, err := e.ValidateSlot(context.Background(), req)
	if err != nil {
		t.Fatalf("ValidateSlot: %v", err)
	}
	if rej != nil {
		t.Fatalf("expected acceptance, got %s: %s", rej.Code, rej.Reason)
	}
}

func mustReject(t *testing.T, e *Engine, req ValidateRequest, code string) {
	t.Helper()
	rej, err := e.ValidateSlot(context.Background(), req)
	if err != nil {
		t.Fatalf("ValidateSlot: %v", err)
	}
	if rej == nil {
		t.Fatalf("expected rejection %s, got acceptance", code)
	}
	if rej.Code != code {
		t.Fatalf("expected rejection %s, got %s: %s", code, rej.Code, rej.Reason)
	}
}

func TestValidateSlot_EndBeforeStart(t *testing.T) {
	f := newDayStore()
	e := newTestEngine(f)

	start := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	mustReject(t, e, validateReq(f, start, start), RejectEndBeforeStart)
	mustReject(t, e, validateReq(f, start, start.Add(-time.Hour)), RejectEndBeforeStart)
}

func TestValidateSlot_PastWithSlack(t *testing.T) {
	f := newDayStore()
	e := newTestEngine(f)

	// testNow is 12:00. Two minutes back is rejected; thirty seconds back
	// sits inside the one-minute slack and passes.
	mustReject(t, e,
		validateReq(f, testNow.Add(-2*time.Minute), testNow.Add(58*time.Minute)), RejectInPast)
	mustAccept(t, e,
		validateReq(f, testNow.Add(-30*time.Second), testNow.Add(time.Hour)))
}

func TestValidateSlot_WorkingHours(t *testing.T) {
	f := newDayStore()
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// Starts before open.
	mustReject(t, e, validateReq(f, day.Add(8*time.Hour+30*time.Minute), day.Add(9*time.Hour+30*time.Minute)), RejectOutsideHours)
	// Ends past close.
	mustReject(t, e, validateReq(f, day.Add(16*time.Hour+30*time.Minute), day.Add(17*time.Hour+30*time.Minute)), RejectOutsideHours)
	// Exactly fills the last hour.
	mustAccept(t, e, validateReq(f, day.Add(16*time.Hour), day.Add(17*time.Hour)))
	// Closed weekday.
	wh := f.hours[model.Tuesday]
	wh.Closed = true
	f.hours[model.Tuesday] = wh
	mustAccept(t, e, validateReq(f, day.AddDate(0, 0, 1).Add(3*time.Hour), day.AddDate(0, 0, 1).Add(4*time.Hour)))
}

func TestValidateSlot_MissingHoursRowIsPermissive(t *testing.T) {
	f := newDayStore()
	delete(f.hours, model.Monday)
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// No row for the weekday means no hours constraint at all.
	mustAccept(t, e, validateReq(f, day.Add(3*time.Hour), day.Add(4*time.Hour)))
}

func TestValidateSlot_TimeOff(t *testing.T) {
	f := newDayStore()
	f.timeOff = []model.TimeOff{{
		ID:         "to-1",
		BusinessID: "biz-1",
		StartTime:  time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC),
	}}
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	mustReject(t, e, validateReq(f, day.Add(13*time.Hour), day.Add(14*time.Hour)), RejectTimeOff)
	// Touching the block boundary is not an overlap.
	mustAccept(t, e, validateReq(f, day.Add(14*time.Hour), day.Add(15*time.Hour)))
}

func TestValidateSlot_BufferedOverlap(t *testing.T) {
	f := newDayStore()
	// Existing 10:00-11:00 padded to 09:50-11:10 by its own buffers.
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
		BufferBefore:  10,
		BufferAfter:   10,
	}}
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// 10:55-11:30 lands inside the padded window.
	mustReject(t, e, validateReq(f, day.Add(10*time.Hour+55*time.Minute), day.Add(11*time.Hour+30*time.Minute)), RejectOverlap)
	// 11:10-12:00 touches the padded end exactly and is free.
	mustAccept(t, e, validateReq(f, day.Add(11*time.Hour+10*time.Minute), day.Add(12*time.Hour)))
}

func TestValidateSlot_RequestBuffersPad(t *testing.T) {
	f := newDayStore()
	svc := f.services["svc-1"]
	svc.BufferBefore = 10
	svc.BufferAfter = 10
	f.services["svc-1"] = svc
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
	}}
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// 11:05-12:05 pads back to 10:55, into the unpadded booking.
	mustReject(t, e, validateReq(f, day.Add(11*time.Hour+5*time.Minute), day.Add(12*time.Hour+5*time.Minute)), RejectOverlap)
	// 11:10-12:10 pads back to exactly 11:00.
	mustAccept(t, e, validateReq(f, day.Add(11*time.Hour+10*time.Minute), day.Add(12*time.Hour+10*time.Minute)))
}

func TestValidateSlot_ExcludeSelf(t *testing.T) {
	f := newDayStore()
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
	}}
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	req := validateReq(f, day.Add(10*time.Hour), day.Add(11*time.Hour))
	mustReject(t, e, req, RejectOverlap)

	// An edit of the same appointment does not collide with itself.
	req.ExcludeAppointmentID = "appt-1"
	mustAccept(t, e, req)
}

func TestValidateSlot_LockRows(t *testing.T) {
	f := newDayStore()
	e := newTestEngine(f)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	req := validateReq(f, day.Add(10*time.Hour), day.Add(11*time.Hour))
	req.LockRows = true
	mustAccept(t, e, req)
	if !f.lockRequested {
		t.Fatal("expected the overlap scan to request row locks")
	}
}
