package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/appointly/appointly/internal/interval"
	"github.com/appointly/appointly/internal/model"
)

// Store is the read surface the engine needs from persistence. Implemented by
// *storage.Repository (pool- or transaction-bound); tests supply fakes.
type Store interface {
	GetBusiness(ctx context.Context, id string) (model.Business, error)
	GetService(ctx context.Context, businessID, serviceID string) (model.Service, error)
	GetBookingPolicy(ctx context.Context, businessID string) (model.BookingPolicy, error)
	GetWorkingHours(ctx context.Context, businessID string, weekday model.Weekday) (model.WorkingHours, error)
	ListTimeOffBetween(ctx context.Context, businessID string, from, to time.Time) ([]model.TimeOff, error)
	ListBookedIntervals(ctx context.Context, businessID string, from, to time.Time, forUpdate bool) ([]model.BookedInterval, error)
}

// NotFoundFunc classifies store errors that mean "row absent" rather than
// "store broken". Read paths map absence to no availability.
type NotFoundFunc func(error) bool

type Engine struct {
	store      Store
	isNotFound NotFoundFunc
	logger     *slog.Logger
}

func New(store Store, isNotFound NotFoundFunc, logger *slog.Logger) *Engine {
	return &Engine{store: store, isNotFound: isNotFound, logger: logger}
}

// WithStore returns an engine running against a different store view, e.g.
// one bound to the transaction that will commit the appointment.
func (e *Engine) WithStore(store Store) *Engine {
	return &Engine{store: store, isNotFound: e.isNotFound, logger: e.logger}
}

// location resolves the business zone, logging once per request when the
// configured id is broken and the engine degrades to UTC.
func (e *Engine) location(b model.Business) *time.Location {
	loc, degraded := interval.LocationFor(b.TimeZoneID)
	if degraded && e.logger != nil {
		e.logger.Warn("invalid business timezone, falling back to UTC",
			"business_id", b.ID, "timezone_id", b.TimeZoneID)
	}
	return loc
}
