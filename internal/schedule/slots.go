package schedule

import (
	"context"
	"time"

	"github.com/appointly/appointly/internal/interval"
)

// paddedBooking is an existing appointment's collision window on the
// business's wall clock, already widened by its own service's buffers.
type paddedBooking struct {
	start time.Time
	end   time.Time
}

// GenerateSlots returns the bookable local start times ("HH:MM", strictly
// ascending) for a service on one business-local calendar day. A missing or
// inactive service, a closed or unconfigured day, or a missing policy all
// yield an empty list; only store failures are errors.
//
// Time off is intentionally not consulted here: the reference behavior lets
// customers request such a slot and leaves time-off enforcement to the
// owner-facing validator.
func (e *Engine) GenerateSlots(ctx context.Context, businessID, serviceID string, year int, month time.Month, day int, nowUTC time.Time) ([]string, error) {
	business, err := e.store.GetBusiness(ctx, businessID)
	if err != nil {
		if e.isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	svc, err := e.store.GetService(ctx, businessID, serviceID)
	if err != nil {
		if e.isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !svc.Active {
		return nil, nil
	}

	ds, err := e.ResolveDay(ctx, business, year, month, day)
	if err != nil {
		return nil, err
	}
	if !ds.Open() {
		return nil, nil
	}

	busy, err := e.bookingsOnDay(ctx, ds)
	if err != nil {
		return nil, err
	}

	open, close := ds.OpenWindow()
	starts := walkSlots(walkParams{
		open:      open,
		close:     close,
		duration:  time.Duration(svc.DurationMinutes) * time.Minute,
		step:      time.Duration(ds.Policy.SlotIntervalMinutes) * time.Minute,
		notice:    time.Duration(ds.Policy.AdvanceNoticeMinutes) * time.Minute,
		padBefore: time.Duration(svc.BufferBefore) * time.Minute,
		padAfter:  time.Duration(svc.BufferAfter) * time.Minute,
		nowLocal:  nowUTC.In(ds.Loc),
		busy:      busy,
	})

	out := make([]string, 0, len(starts))
	for _, s := range starts {
		out = append(out, s.Format("15:04"))
	}
	return out, nil
}

// bookingsOnDay loads the non-cancelled appointments whose local start date
// matches the schedule's day and pads each with its own service's buffers.
// The query window is widened so bookings near midnight in distant zones are
// not missed before the local-date filter runs.
func (e *Engine) bookingsOnDay(ctx context.Context, ds DaySchedule) ([]paddedBooking, error) {
	from := ds.Date.UTC().Add(-48 * time.Hour)
	to := ds.Date.AddDate(0, 0, 1).UTC().Add(48 * time.Hour)

	booked, err := e.store.ListBookedIntervals(ctx, ds.Business.ID, from, to, false)
	if err != nil {
		return nil, err
	}

	var busy []paddedBooking
	for _, b := range booked {
		startLocal := b.Start.In(ds.Loc)
		if startLocal.Year() != ds.Date.Year() || startLocal.YearDay() != ds.Date.YearDay() {
			continue
		}
		busy = append(busy, paddedBooking{
			start: startLocal.Add(-time.Duration(b.BufferBefore) * time.Minute),
			end:   b.End.In(ds.Loc).Add(time.Duration(b.BufferAfter) * time.Minute),
		})
	}
	return busy, nil
}

type walkParams struct {
	open, close time.Time
	duration    time.Duration
	step        time.Duration
	notice      time.Duration
	padBefore   time.Duration
	padAfter    time.Duration
	nowLocal    time.Time
	busy        []paddedBooking
}

// walkSlots is the pure cadence walk: candidates start at open and advance in
// step increments until the first one whose end would run past close, which
// also ends the walk for every later candidate.
func walkSlots(p walkParams) []time.Time {
	if p.duration <= 0 || p.step <= 0 {
		return nil
	}

	var slots []time.Time
	for cur := p.open; !cur.Add(p.duration).After(p.close); cur = cur.Add(p.step) {
		if cur.Before(p.nowLocal) {
			continue
		}
		if cur.Before(p.nowLocal.Add(p.notice)) {
			continue
		}
		blockStart := cur.Add(-p.padBefore)
		blockEnd := cur.Add(p.duration).Add(p.padAfter)
		if overlapsBusy(blockStart, blockEnd, p.busy) {
			continue
		}
		slots = append(slots, cur)
	}
	return slots
}

func overlapsBusy(start, end time.Time, busy []paddedBooking) bool {
	for _, b := range busy {
		if interval.Overlaps(start, end, b.start, b.end) {
			return true
		}
	}
	return false
}
