package interval

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps_Symmetry(t *testing.T) {
	cases := []struct {
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{at(9, 0), at(10, 0), at(10, 0), at(11, 0), false}, // touching
		{at(9, 0), at(10, 0), at(8, 0), at(9, 0), false},   // touching
		{at(9, 0), at(10, 0), at(9, 15), at(9, 45), true},  // containment
		{at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
	}
	for i, c := range cases {
		got := Overlaps(c.aStart, c.aEnd, c.bStart, c.bEnd)
		if got != c.want {
			t.Errorf("case %d: Overlaps = %v, want %v", i, got, c.want)
		}
		if got != Overlaps(c.bStart, c.bEnd, c.aStart, c.aEnd) {
			t.Errorf("case %d: Overlaps is not symmetric", i)
		}
	}
}

func TestMerge_UnionsOverlappingBlocks(t *testing.T) {
	merged := Merge([]Interval{
		{Start: at(13, 0), End: at(14, 0)},
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(9, 30), End: at(11, 0)},
		{Start: at(11, 0), End: at(11, 30)}, // touching the previous union
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged intervals, got %d", len(merged))
	}
	if !merged[0].Start.Equal(at(9, 0)) || !merged[0].End.Equal(at(11, 30)) {
		t.Fatalf("unexpected first union: %v", merged[0])
	}
	if !merged[1].Start.Equal(at(13, 0)) || !merged[1].End.Equal(at(14, 0)) {
		t.Fatalf("unexpected second union: %v", merged[1])
	}
}

func TestMerge_DropsInvalid(t *testing.T) {
	merged := Merge([]Interval{
		{Start: at(10, 0), End: at(10, 0)},
		{Start: at(11, 0), End: at(10, 0)},
	})
	if merged != nil {
		t.Fatalf("expected nil, got %v", merged)
	}
}

func TestClip(t *testing.T) {
	base := Interval{Start: at(9, 0), End: at(17, 0)}
	got, ok := Clip(Interval{Start: at(8, 0), End: at(10, 0)}, base)
	if !ok || !got.Start.Equal(at(9, 0)) || !got.End.Equal(at(10, 0)) {
		t.Fatalf("unexpected clip result: %v ok=%v", got, ok)
	}
	if _, ok := Clip(Interval{Start: at(7, 0), End: at(8, 0)}, base); ok {
		t.Fatal("expected clip outside base to report false")
	}
}

func TestLocationFor_FallsBackToUTC(t *testing.T) {
	loc, degraded := LocationFor("Europe/Berlin")
	if degraded || loc == nil {
		t.Fatalf("expected valid zone, degraded=%v", degraded)
	}
	loc, degraded = LocationFor("Not/AZone")
	if !degraded || loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v degraded=%v", loc, degraded)
	}
}

func TestToUTC_RoundTrip(t *testing.T) {
	loc, _ := LocationFor("Europe/Berlin")
	// 2026-07-01 10:00 Berlin is 08:00 UTC.
	utc := ToUTC(2026, time.July, 1, 10*60, loc)
	if !utc.Equal(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant: %s", utc)
	}
	local := ToLocal(utc, loc)
	if local.Hour() != 10 || local.Minute() != 0 {
		t.Fatalf("round trip broke wall clock: %s", local)
	}
}

func TestMinuteLabel(t *testing.T) {
	if got := MinuteLabel(9 * 60); got != "09:00" {
		t.Fatalf("got %q", got)
	}
	if got := MinuteLabel(16*60 + 5); got != "16:05" {
		t.Fatalf("got %q", got)
	}
}
