package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// dateLayout is the canonical wire/storage format for Date
const dateLayout = "2006-01-02"

// Date is a value object representing a calendar date with day granularity
// and no time-of-day or zone component. Billing boundaries are day-granular,
// so all service-period arithmetic works on Date rather than time.Time.
// It is immutable - all operations return new Date instances
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate creates a new Date from year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// NewDateFromTime creates a Date from the civil date of t observed in loc.
// A nil location defaults to UTC.
func NewDateFromTime(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses a Date from its YYYY-MM-DD representation
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date string %q: %w", s, err)
	}
	return NewDateFromTime(t, time.UTC), nil
}

// Year returns the year
func (d Date) Year() int {
	return d.year
}

// Month returns the month
func (d Date) Month() time.Month {
	return d.month
}

// Day returns the day of month
func (d Date) Day() int {
	return d.day
}

// IsZero returns true for the zero Date
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time returns the date at midnight UTC
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Before returns true if d falls strictly before other
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After returns true if d falls strictly after other
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// Equal returns true if both dates denote the same day
func (d Date) Equal(other Date) bool {
	return d.year == other.year && d.month == other.month && d.day == other.day
}

// Compare returns -1, 0 or 1 comparing d against other chronologically
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// AddDays returns the date n days after d (n may be negative)
func (d Date) AddDays(n int) Date {
	return NewDateFromTime(d.Time().AddDate(0, 0, n), time.UTC)
}

// AddMonths returns the date n months after d. Following time.AddDate
// semantics, overflowing days normalize into the next month
// (Jan 31 + 1 month = Mar 3); callers needing bill-cycle-day clamping
// should use WithDay after the shift.
func (d Date) AddMonths(n int) Date {
	return NewDateFromTime(d.Time().AddDate(0, n, 0), time.UTC)
}

// WithDay returns the date in the same month with the given day of month,
// clamped to the month's last day
func (d Date) WithDay(day int) Date {
	if last := DaysInMonth(d.year, d.month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return Date{year: d.year, month: d.month, day: day}
}

// DaysBetween returns the number of days from d up to other (other - d)
func (d Date) DaysBetween(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// MonthsBetween returns the number of whole months from d up to other,
// negative when other precedes d
func (d Date) MonthsBetween(other Date) int {
	months := (other.year-d.year)*12 + int(other.month) - int(d.month)
	if months > 0 && other.day < d.day {
		months--
	} else if months < 0 && other.day > d.day {
		months++
	}
	return months
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String returns the YYYY-MM-DD representation
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (d Date) Value() (driver.Value, error) {
	return d.Time(), nil
}

// Scan implements sql.Scanner for database retrieval
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDateFromTime(v, time.UTC)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}
