package service

import (
	"time"

	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// Clock provides the current system time to domain services. Invoice
// generation dates and target-date validation depend on it, so tests
// inject a fixed implementation instead of reading the wall clock.
type Clock interface {
	// Now returns the current instant
	Now() time.Time
	// UTCToday returns the current calendar date observed in UTC
	UTCToday() valueobject.Date
}

// SystemClock is the production Clock backed by the wall clock
type SystemClock struct{}

// NewSystemClock creates a new SystemClock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current instant
func (SystemClock) Now() time.Time {
	return time.Now()
}

// UTCToday returns the current calendar date observed in UTC
func (SystemClock) UTCToday() valueobject.Date {
	return valueobject.NewDateFromTime(time.Now(), time.UTC)
}

// FixedClock is a Clock pinned to a single instant, for tests
type FixedClock struct {
	instant time.Time
}

// NewFixedClock creates a FixedClock pinned to the given instant
func NewFixedClock(instant time.Time) *FixedClock {
	return &FixedClock{instant: instant}
}

// Now returns the pinned instant
func (c *FixedClock) Now() time.Time {
	return c.instant
}

// UTCToday returns the pinned instant's calendar date in UTC
func (c *FixedClock) UTCToday() valueobject.Date {
	return valueobject.NewDateFromTime(c.instant, time.UTC)
}

// Advance moves the pinned instant forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.instant = c.instant.Add(d)
}
