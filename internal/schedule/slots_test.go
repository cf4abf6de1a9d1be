package schedule

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/appointly/appointly/internal/model"
)

func TestGenerateSlots_FullDayGrid(t *testing.T) {
	f := newDayStore()
	e := newTestEngine(f)

	// 09:00-17:00, 60-minute service on a 30-minute cadence. The last start
	// that still fits is 16:00.
	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, testNow)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[14] != "16:00" {
		t.Fatalf("expected grid 09:00..16:00, got %v", slots)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not strictly ascending: %v", slots)
		}
	}
}

func TestGenerateSlots_AdvanceNotice(t *testing.T) {
	f := newDayStore()
	f.policy.AdvanceNoticeMinutes = 60
	e := newTestEngine(f)

	// 09:30 same day: past starts and anything inside the notice window are
	// dropped, so the first offer is 10:30.
	now := time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC)
	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, now)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) == 0 || slots[0] != "10:30" {
		t.Fatalf("expected first slot 10:30, got %v", slots)
	}
}

func TestGenerateSlots_BufferedBookingBlocks(t *testing.T) {
	f := newDayStore()
	// Existing booking 10:00-11:00 padded to 09:50-11:10 by its own service.
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
		BufferBefore:  10,
		BufferAfter:   10,
	}}
	e := newTestEngine(f)

	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, testNow)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	joined := strings.Join(slots, " ")
	for _, gone := range []string{"09:30", "10:00", "10:30", "11:00"} {
		if strings.Contains(joined, gone) {
			t.Fatalf("slot %s should be blocked by the padded booking, got %v", gone, slots)
		}
	}
	// 09:00-10:00 touches the 09:50 pad start? No: it overlaps. 11:30 is the
	// first clean start after the padded end at 11:10.
	if !strings.Contains(joined, "11:30") {
		t.Fatalf("expected 11:30 to be offered, got %v", slots)
	}
	if strings.Contains(joined, "09:00") {
		t.Fatalf("09:00-10:00 overlaps the 09:50 pad and must be blocked, got %v", slots)
	}
}

func TestGenerateSlots_RequestBuffersWiden(t *testing.T) {
	f := newDayStore()
	svc := f.services["svc-1"]
	svc.BufferBefore = 15
	svc.BufferAfter = 15
	f.services["svc-1"] = svc
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC),
	}}
	e := newTestEngine(f)

	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, testNow)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	joined := strings.Join(slots, " ")
	// 10:30-11:30 padded to 10:15-11:45 touches 12:00: allowed. 11:00 padded
	// runs to 12:15: blocked.
	if !strings.Contains(joined, "10:30") {
		t.Fatalf("expected 10:30 to be offered, got %v", slots)
	}
	if strings.Contains(joined, "11:00") || strings.Contains(joined, "13:00") {
		t.Fatalf("starts whose padded window crosses the booking must be blocked, got %v", slots)
	}
	if !strings.Contains(joined, "13:30") {
		t.Fatalf("expected 13:30 (padded start 13:15, clear of 13:00) to be offered, got %v", slots)
	}
}

func TestGenerateSlots_ClosedOrUnconfigured(t *testing.T) {
	ctx := context.Background()

	f := newDayStore()
	wh := f.hours[model.Monday]
	wh.Closed = true
	f.hours[model.Monday] = wh
	if slots, err := newTestEngine(f).GenerateSlots(ctx, "biz-1", "svc-1", 2026, time.March, 9, testNow); err != nil || len(slots) != 0 {
		t.Fatalf("closed day: expected no slots, got %v (err %v)", slots, err)
	}

	f = newDayStore()
	delete(f.hours, model.Monday)
	if slots, err := newTestEngine(f).GenerateSlots(ctx, "biz-1", "svc-1", 2026, time.March, 9, testNow); err != nil || len(slots) != 0 {
		t.Fatalf("no hours row: expected no slots, got %v (err %v)", slots, err)
	}

	f = newDayStore()
	f.policy = nil
	if slots, err := newTestEngine(f).GenerateSlots(ctx, "biz-1", "svc-1", 2026, time.March, 9, testNow); err != nil || len(slots) != 0 {
		t.Fatalf("no policy: expected no slots, got %v (err %v)", slots, err)
	}
}

func TestGenerateSlots_MissingOrInactiveService(t *testing.T) {
	ctx := context.Background()

	f := newDayStore()
	if slots, err := newTestEngine(f).GenerateSlots(ctx, "biz-1", "nope", 2026, time.March, 9, testNow); err != nil || slots != nil {
		t.Fatalf("missing service: expected nil, got %v (err %v)", slots, err)
	}

	svc := f.services["svc-1"]
	svc.Active = false
	f.services["svc-1"] = svc
	if slots, err := newTestEngine(f).GenerateSlots(ctx, "biz-1", "svc-1", 2026, time.March, 9, testNow); err != nil || slots != nil {
		t.Fatalf("inactive service: expected nil, got %v (err %v)", slots, err)
	}
}

func TestGenerateSlots_TimeOffNotConsulted(t *testing.T) {
	f := newDayStore()
	f.timeOff = []model.TimeOff{{
		ID:         "to-1",
		BusinessID: "biz-1",
		StartTime:  time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}}
	e := newTestEngine(f)

	// The generator offers the full grid even under all-day time off; the
	// validator is where time off is enforced.
	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, testNow)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected the full 15-slot grid despite time off, got %v", slots)
	}
	if f.timeOffCalls != 0 {
		t.Fatalf("slot generation queried time off %d times, want none", f.timeOffCalls)
	}
}

func TestGenerateSlots_LocalDayInDistantZone(t *testing.T) {
	f := newDayStore()
	f.business.TimeZoneID = "Pacific/Auckland"
	e := newTestEngine(f)

	loc, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// A booking at 09:00 local on the requested day sits on the previous UTC
	// calendar date; it must still block the local grid.
	start := time.Date(2026, 3, 9, 9, 0, 0, 0, loc)
	f.booked = []model.BookedInterval{{
		AppointmentID: "appt-1",
		Start:         start.UTC(),
		End:           start.Add(time.Hour).UTC(),
	}}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, now.UTC())
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	joined := strings.Join(slots, " ")
	if strings.Contains(joined, "09:00") || strings.Contains(joined, "09:30") {
		t.Fatalf("expected the 09:00 local booking to block, got %v", slots)
	}
	if !strings.Contains(joined, "10:00") {
		t.Fatalf("expected 10:00 local to be offered, got %v", slots)
	}
}

func TestGenerateSlots_LastSlotEndsAtClose(t *testing.T) {
	f := newDayStore()
	svc := f.services["svc-1"]
	svc.DurationMinutes = 90
	f.services["svc-1"] = svc
	e := newTestEngine(f)

	slots, err := e.GenerateSlots(context.Background(), "biz-1", "svc-1", 2026, time.March, 9, testNow)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) == 0 || slots[len(slots)-1] != "15:30" {
		t.Fatalf("90-minute service must end by 17:00, expected last start 15:30, got %v", slots)
	}
}
