package handlers

import "testing"

func TestServiceFromBodyBounds(t *testing.T) {
	h := &ConfigHandler{}

	svc, msg := h.serviceFromBody("biz-1", serviceBody{Name: "Cut", DurationMinutes: 24 * 60})
	if msg != "" {
		t.Fatalf("a full-day duration must be accepted: %s", msg)
	}
	if svc.Price != "0" {
		t.Fatalf("empty price must default to 0, got %q", svc.Price)
	}

	for _, bad := range []serviceBody{
		{Name: "Cut", DurationMinutes: 0},
		{Name: "Cut", DurationMinutes: 24*60 + 1},
		{Name: "Cut", DurationMinutes: 60, BufferBefore: -1},
		{Name: "Cut", DurationMinutes: 60, BufferBefore: 24*60 + 1},
		{Name: "Cut", DurationMinutes: 60, BufferAfter: 24*60 + 1},
		{Name: "Cut", DurationMinutes: 60, Price: "-5"},
		{Name: "Cut", DurationMinutes: 60, Price: "lots"},
	} {
		if _, msg := h.serviceFromBody("biz-1", bad); msg == "" {
			t.Fatalf("expected rejection for %+v", bad)
		}
	}
}

func TestPolicyBodyValidate(t *testing.T) {
	if msg := (policyBody{SlotIntervalMinutes: 5}).validate(); msg != "" {
		t.Fatalf("5-minute interval must be accepted: %s", msg)
	}
	if msg := (policyBody{SlotIntervalMinutes: 24 * 60}).validate(); msg != "" {
		t.Fatalf("full-day interval must be accepted: %s", msg)
	}

	for _, bad := range []policyBody{
		{SlotIntervalMinutes: 4},
		{SlotIntervalMinutes: 24*60 + 1},
		{SlotIntervalMinutes: 30, AdvanceNoticeMinutes: -1},
		{SlotIntervalMinutes: 30, CancellationWindowMinutes: -1},
		{SlotIntervalMinutes: 30, MaxAdvanceDays: -1},
	} {
		if msg := bad.validate(); msg == "" {
			t.Fatalf("expected rejection for %+v", bad)
		}
	}
}
