package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// OverlapsAny reports whether [start,end) intersects any of the given busy
// intervals.
func OverlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// Merge sorts the given intervals and collapses overlapping or touching ones
// into their union. Invalid (empty or inverted) intervals are dropped. The
// input slice is not modified.
func Merge(in []Interval) []Interval {
	var ivs []Interval
	for _, iv := range in {
		if iv.Valid() {
			ivs = append(ivs, iv)
		}
	}
	if len(ivs) == 0 {
		return nil
	}

	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Start.Equal(ivs[j].Start) {
			return ivs[i].End.Before(ivs[j].End)
		}
		return ivs[i].Start.Before(ivs[j].Start)
	})

	merged := make([]Interval, 0, len(ivs))
	for _, cur := range ivs {
		if len(merged) == 0 {
			merged = append(merged, cur)
			continue
		}
		last := &merged[len(merged)-1]
		if cur.Start.After(last.End) {
			merged = append(merged, cur)
			continue
		}
		if cur.End.After(last.End) {
			last.End = cur.End
		}
	}
	return merged
}

// Clip limits iv to the base interval, returning false when nothing remains.
func Clip(iv, base Interval) (Interval, bool) {
	if iv.Start.Before(base.Start) {
		iv.Start = base.Start
	}
	if iv.End.After(base.End) {
		iv.End = base.End
	}
	if !iv.Valid() {
		return Interval{}, false
	}
	return iv, true
}
