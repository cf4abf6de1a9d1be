package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/appointly/appointly/internal/model"
)

var errNotFound = errors.New("not found")

// fakeStore is an in-memory Store keyed the way the repository is: one
// working-hours row per weekday, one policy per business.
type fakeStore struct {
	business model.Business
	services map[string]model.Service
	policy   *model.BookingPolicy
	hours    map[model.Weekday]model.WorkingHours
	timeOff  []model.TimeOff
	booked   []model.BookedInterval

	lockRequested bool
	timeOffCalls  int
}

func (f *fakeStore) GetBusiness(_ context.Context, id string) (model.Business, error) {
	if f.business.ID != id {
		return model.Business{}, errNotFound
	}
	return f.business, nil
}

func (f *fakeStore) GetService(_ context.Context, businessID, serviceID string) (model.Service, error) {
	svc, ok := f.services[serviceID]
	if !ok || svc.BusinessID != businessID {
		return model.Service{}, errNotFound
	}
	return svc, nil
}

func (f *fakeStore) GetBookingPolicy(_ context.Context, businessID string) (model.BookingPolicy, error) {
	if f.policy == nil || f.policy.BusinessID != businessID {
		return model.BookingPolicy{}, errNotFound
	}
	return *f.policy, nil
}

func (f *fakeStore) GetWorkingHours(_ context.Context, _ string, weekday model.Weekday) (model.WorkingHours, error) {
	wh, ok := f.hours[weekday]
	if !ok {
		return model.WorkingHours{}, errNotFound
	}
	return wh, nil
}

func (f *fakeStore) ListTimeOffBetween(_ context.Context, _ string, from, to time.Time) ([]model.TimeOff, error) {
	f.timeOffCalls++
	var out []model.TimeOff
	for _, t := range f.timeOff {
		if t.StartTime.Before(to) && t.EndTime.After(from) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBookedIntervals(_ context.Context, _ string, from, to time.Time, forUpdate bool) ([]model.BookedInterval, error) {
	if forUpdate {
		f.lockRequested = true
	}
	var out []model.BookedInterval
	for _, b := range f.booked {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestEngine(store *fakeStore) *Engine {
	return New(store, func(err error) bool { return errors.Is(err, errNotFound) }, slog.Default())
}

// newDayStore builds a business open 09:00-17:00 every day, a 60-minute
// service with no buffers, and a 30-minute slot cadence with no notice.
func newDayStore() *fakeStore {
	f := &fakeStore{
		business: model.Business{ID: "biz-1", TimeZoneID: "UTC"},
		services: map[string]model.Service{
			"svc-1": {ID: "svc-1", BusinessID: "biz-1", Name: "Consult", DurationMinutes: 60, Active: true},
		},
		policy: &model.BookingPolicy{BusinessID: "biz-1", SlotIntervalMinutes: 30, MaxAdvanceDays: 30},
		hours:  map[model.Weekday]model.WorkingHours{},
	}
	for wd := model.Monday; wd <= model.Sunday; wd++ {
		f.hours[wd] = model.WorkingHours{BusinessID: "biz-1", Weekday: wd, OpenMinute: 9 * 60, CloseMinute: 17 * 60}
	}
	return f
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
