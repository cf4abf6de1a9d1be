package model

import "time"

// Weekday numbering is ISO: 1=Monday .. 7=Sunday. This is the only weekday
// convention used in the engine; time.Weekday (0=Sunday) is converted at the
// edges.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// WeekdayOf maps a local calendar date to the ISO weekday number.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return Weekday(wd)
}

type Business struct {
	ID                 string
	OwnerAccountID     string
	Name               string
	Slug               string
	TimeZoneID         string
	Phone              string
	Address            string
	OnboardingComplete bool
	CreatedAt          time.Time
}

type Service struct {
	ID              string
	BusinessID      string
	Name            string
	DurationMinutes int
	Price           string
	BufferBefore    int
	BufferAfter     int
	Active          bool
	CreatedAt       time.Time
}

// BookingPolicy holds the per-business slot cadence and lead-time rules.
// CancellationWindowMinutes is carried for callers that enforce customer
// cancellation deadlines; the engine itself only exposes it.
type BookingPolicy struct {
	BusinessID                string
	SlotIntervalMinutes       int
	AdvanceNoticeMinutes      int
	CancellationWindowMinutes int
	MaxAdvanceDays            int
}

// WorkingHours is one row per (business, weekday). Open/CloseMinute are
// minutes since local midnight and are meaningful only when Closed is false.
type WorkingHours struct {
	BusinessID  string
	Weekday     Weekday
	Closed      bool
	OpenMinute  int
	CloseMinute int
}

type TimeOff struct {
	ID         string
	BusinessID string
	StartTime  time.Time
	EndTime    time.Time
	Reason     string
	CreatedAt  time.Time
}
