package colvec

import (
	"fmt"
	"math"
	"time"
)

const (
	microsPerDay = int64(24 * time.Hour / time.Microsecond)

	// Bounds of time.Duration expressed in days and microseconds.
	maxDurationDays   = int64(math.MaxInt64 / int64(24*time.Hour))
	maxDurationMicros = int64(math.MaxInt64 / int64(time.Microsecond))
)

// Interval is a calendar interval. Months have no fixed length, so an
// interval only converts to a time.Duration when Months is zero.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// IntervalFromDuration splits d into whole days and remaining microseconds.
func IntervalFromDuration(d time.Duration) Interval {
	day := 24 * time.Hour
	return Interval{
		Days:   int32(d / day),
		Micros: (d % day).Microseconds(),
	}
}

// Duration converts the interval back to a time.Duration. It fails with
// ErrRange when the interval has months, when its days exceed the range of
// time.Duration, or when the total microseconds overflow it.
func (i Interval) Duration() (time.Duration, error) {
	if i.Months != 0 {
		return 0, fmt.Errorf("%w: interval of %d months has no fixed duration", ErrRange, i.Months)
	}
	days := int64(i.Days)
	if days > maxDurationDays || days < -maxDurationDays {
		return 0, fmt.Errorf("%w: %d days overflows time.Duration", ErrRange, i.Days)
	}
	dayMicros := days * microsPerDay
	if (i.Micros > 0 && dayMicros > maxDurationMicros-i.Micros) ||
		(i.Micros < 0 && dayMicros < -maxDurationMicros-i.Micros) {
		return 0, fmt.Errorf("%w: %d days and %d microseconds overflows time.Duration", ErrRange, i.Days, i.Micros)
	}
	total := dayMicros + i.Micros
	if total > maxDurationMicros || total < -maxDurationMicros {
		return 0, fmt.Errorf("%w: %d microseconds overflows time.Duration", ErrRange, total)
	}
	return time.Duration(total) * time.Microsecond, nil
}

func (i Interval) String() string {
	return fmt.Sprintf("%d months %d days %d us", i.Months, i.Days, i.Micros)
}
