package schedule

import (
	"context"
	"time"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/model"
)

// DaySchedule is everything the engine knows about one business-local
// calendar day: the weekday's hours and the booking policy. Time off is not
// part of it; only the validator consults time off, on its own query.
type DaySchedule struct {
	Business model.Business
	Loc      *time.Location
	Date     time.Time // local midnight of the requested day

	Hours     model.WorkingHours
	HasHours  bool
	Policy    model.BookingPolicy
	HasPolicy bool
}

// Open reports whether the day can offer any availability at all. Missing
// policy and missing or closed hours are soft "no availability", not errors.
func (d DaySchedule) Open() bool {
	if !d.HasPolicy || !d.HasHours || d.Hours.Closed {
		return false
	}
	return d.Hours.CloseMinute > d.Hours.OpenMinute
}

// OpenWindow returns the day's working window as local wall-clock instants.
func (d DaySchedule) OpenWindow() (open, close time.Time) {
	return interval.AtMinute(d.Date, d.Hours.OpenMinute), interval.AtMinute(d.Date, d.Hours.CloseMinute)
}

// ResolveDay loads the calendar context for (business, local date). year,
// month and day describe the date on the business's wall clock.
func (e *Engine) ResolveDay(ctx context.Context, business model.Business, year int, month time.Month, day int) (DaySchedule, error) {
	loc := e.location(business)
	date := time.Date(year, month, day, 0, 0, 0, 0, loc)

	ds := DaySchedule{Business: business, Loc: loc, Date: date}

	hours, err := e.store.GetWorkingHours(ctx, business.ID, model.WeekdayOf(date))
	switch {
	case err == nil:
		ds.Hours = hours
		ds.HasHours = true
	case !e.isNotFound(err):
		return DaySchedule{}, err
	}

	policy, err := e.store.GetBookingPolicy(ctx, business.ID)
	switch {
	case err == nil:
		ds.Policy = policy
		ds.HasPolicy = true
	case !e.isNotFound(err):
		return DaySchedule{}, err
	}

	return ds, nil
}
