package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/model"
)

// Rejection is a user-correctable validation outcome. It is data, not an
// error: the caller surfaces Reason verbatim and never retries.
type Rejection struct {
	Code   string
	Reason string
}

const (
	RejectEndBeforeStart = "end_before_start"
	RejectInPast         = "in_past"
	RejectOutsideHours   = "outside_hours"
	RejectTimeOff        = "time_off"
	RejectOverlap        = "overlap"
)

func reject(code, reason string) *Rejection {
	return &Rejection{Code: code, Reason: reason}
}

// ValidateRequest describes a proposed or edited appointment on the
// business's wall clock.
type ValidateRequest struct {
	Business   model.Business
	Service    model.Service
	StartLocal time.Time // in the business zone
	EndLocal   time.Time
	// ExcludeAppointmentID skips one appointment in the overlap scan, so an
	// edit does not collide with itself.
	ExcludeAppointmentID string
	NowUTC               time.Time
	// LockRows makes the overlap scan take row locks. Set when the validator
	// re-runs inside the transaction that commits the appointment.
	LockRows bool
}

// ValidateSlot runs the ordered checks on a proposed appointment window and
// returns the first rejection, or (nil, nil) for acceptance. It has no side
// effects; committing is the caller's job, under the same transaction that
// re-runs this validator or behind the schema's exclusion constraint.
func (e *Engine) ValidateSlot(ctx context.Context, req ValidateRequest) (*Rejection, error) {
	if !req.EndLocal.After(req.StartLocal) {
		return reject(RejectEndBeforeStart, "End time must be after start time."), nil
	}

	loc := e.location(req.Business)
	nowLocal := req.NowUTC.In(loc)

	// One minute of slack absorbs clock and form rounding.
	if req.StartLocal.Before(nowLocal.Add(-time.Minute)) {
		return reject(RejectInPast, "Start time must be in the future."), nil
	}

	if rej, err := e.checkWorkingHours(ctx, req); rej != nil || err != nil {
		return rej, err
	}
	if rej, err := e.checkTimeOff(ctx, req); rej != nil || err != nil {
		return rej, err
	}
	return e.checkAppointmentOverlap(ctx, req)
}

// checkWorkingHours enforces containment in [open, close] for the start's
// weekday. A missing row is a deliberate permissive fallback: no constraint.
func (e *Engine) checkWorkingHours(ctx context.Context, req ValidateRequest) (*Rejection, error) {
	wh, err := e.store.GetWorkingHours(ctx, req.Business.ID, model.WeekdayOf(req.StartLocal))
	if err != nil {
		if e.isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if wh.Closed || wh.CloseMinute <= wh.OpenMinute {
		return nil, nil
	}

	open := interval.AtMinute(req.StartLocal, wh.OpenMinute)
	close := interval.AtMinute(req.StartLocal, wh.CloseMinute)
	if req.StartLocal.Before(open) || req.EndLocal.After(close) {
		return reject(RejectOutsideHours, fmt.Sprintf("Outside working hours (%s–%s).",
			interval.MinuteLabel(wh.OpenMinute), interval.MinuteLabel(wh.CloseMinute))), nil
	}
	return nil, nil
}

// checkTimeOff rejects any overlap with the union of time-off blocks. No
// buffers apply here; buffers belong to appointment collision only.
func (e *Engine) checkTimeOff(ctx context.Context, req ValidateRequest) (*Rejection, error) {
	startUTC := req.StartLocal.UTC()
	endUTC := req.EndLocal.UTC()

	blocks, err := e.store.ListTimeOffBetween(ctx, req.Business.ID, startUTC, endUTC)
	if err != nil {
		return nil, err
	}
	ivs := make([]interval.Interval, 0, len(blocks))
	for _, b := range blocks {
		ivs = append(ivs, interval.Interval{Start: b.StartTime.UTC(), End: b.EndTime.UTC()})
	}
	if interval.OverlapsAny(startUTC, endUTC, interval.Merge(ivs)) {
		return reject(RejectTimeOff, "This time overlaps with time off."), nil
	}
	return nil, nil
}

// checkAppointmentOverlap compares the buffer-padded request window against
// the buffer-padded windows of every other open appointment.
func (e *Engine) checkAppointmentOverlap(ctx context.Context, req ValidateRequest) (*Rejection, error) {
	blockStart := req.StartLocal.Add(-time.Duration(req.Service.BufferBefore) * time.Minute).UTC()
	blockEnd := req.EndLocal.Add(time.Duration(req.Service.BufferAfter) * time.Minute).UTC()

	// The scan window is the padded request plus the largest buffer any other
	// booking may carry on its own side.
	const maxBuffer = 24 * time.Hour
	booked, err := e.store.ListBookedIntervals(ctx, req.Business.ID,
		blockStart.Add(-maxBuffer), blockEnd.Add(maxBuffer), req.LockRows)
	if err != nil {
		return nil, err
	}

	for _, b := range booked {
		if b.AppointmentID == req.ExcludeAppointmentID {
			continue
		}
		bStart := b.Start.Add(-time.Duration(b.BufferBefore) * time.Minute)
		bEnd := b.End.Add(time.Duration(b.BufferAfter) * time.Minute)
		if interval.Overlaps(blockStart, blockEnd, bStart, bEnd) {
			return reject(RejectOverlap, "This time overlaps with an existing appointment."), nil
		}
	}
	return nil, nil
}
