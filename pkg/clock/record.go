// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clock

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a record field lies outside its bounds
var ErrOutOfRange = errors.New("field out of range")

// dayNames maps weekday numbers 1..7 to their three-letter names.
// Index 0 is unused.
var dayNames = [8]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayName returns the three-letter name of weekday w (1 = Mon),
// or "??" when w is out of range.
func WeekdayName(w uint8) string {
	if w < 1 || w > 7 {
		return "??"
	}
	return dayNames[w]
}

// ParseWeekday matches s against the day-name table. Matching is exact and
// case-sensitive: "Wed" is accepted, "wed" and "Wednesday" are not.
func ParseWeekday(s string) (uint8, bool) {
	for i := 1; i < len(dayNames); i++ {
		if s == dayNames[i] {
			return uint8(i), true
		}
	}
	return 0, false
}

// MaxDay returns the number of days in month of year (0..99).
//
// A year is a leap year when it is divisible by 4; there is no century
// correction.
func MaxDay(month, year uint8) uint8 {
	switch month {
	case 2:
		if year%4 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// TimeRecord is a working copy of the time and date fields.
type TimeRecord struct {
	Hour    uint8 // 0-23
	Minute  uint8 // 0-59
	Second  uint8 // 0-59
	Weekday uint8 // 1-7, 1 = Mon
	Day     uint8 // 1-MaxDay(Month, Year)
	Month   uint8 // 1-12
	Year    uint8 // 0-99
}

// DefaultTime is the record written to the device by a system reset
var DefaultTime = TimeRecord{
	Hour:    10,
	Minute:  21,
	Second:  0,
	Weekday: 3,
	Day:     5,
	Month:   11,
	Year:    25,
}

// Bounds returns the inclusive range accepted for field f. The Day bound is
// the widest month; use MaxDay for the month-specific limit.
func Bounds(f Field) (lo, hi uint8) {
	switch f {
	case FieldHour:
		return 0, 23
	case FieldMinute, FieldSecond:
		return 0, 59
	case FieldWeekday:
		return 1, 7
	case FieldDay:
		return 1, 31
	case FieldMonth:
		return 1, 12
	case FieldYear:
		return 0, 99
	default:
		return 0, 0
	}
}

// InRange reports whether v is acceptable for field f
func InRange(f Field, v int) bool {
	lo, hi := Bounds(f)
	return v >= int(lo) && v <= int(hi)
}

// Get returns the value of field f.
func (r *TimeRecord) Get(f Field) uint8 {
	switch f {
	case FieldHour:
		return r.Hour
	case FieldMinute:
		return r.Minute
	case FieldSecond:
		return r.Second
	case FieldWeekday:
		return r.Weekday
	case FieldDay:
		return r.Day
	case FieldMonth:
		return r.Month
	case FieldYear:
		return r.Year
	default:
		return 0
	}
}

// Set stores v into field f. Changing Month or Year re-clamps Day so it
// never exceeds the length of the resulting month.
func (r *TimeRecord) Set(f Field, v uint8) {
	switch f {
	case FieldHour:
		r.Hour = v
	case FieldMinute:
		r.Minute = v
	case FieldSecond:
		r.Second = v
	case FieldWeekday:
		r.Weekday = v
	case FieldDay:
		r.Day = v
	case FieldMonth:
		r.Month = v
		r.clampDay()
	case FieldYear:
		r.Year = v
		r.clampDay()
	}
}

func (r *TimeRecord) clampDay() {
	if r.Month < 1 || r.Month > 12 {
		return
	}
	if max := MaxDay(r.Month, r.Year); r.Day > max {
		r.Day = max
	}
}

// Increment steps field f up by one, wrapping at the top of its range.
// Day wraps at the length of the record's own Month/Year.
func (r *TimeRecord) Increment(f Field) {
	switch f {
	case FieldHour:
		r.Hour = (r.Hour + 1) % 24
	case FieldMinute:
		r.Minute = (r.Minute + 1) % 60
	case FieldSecond:
		r.Second = (r.Second + 1) % 60
	case FieldWeekday:
		r.Weekday = r.Weekday%7 + 1
	case FieldDay:
		r.Day = r.Day%MaxDay(r.Month, r.Year) + 1
	case FieldMonth:
		r.Month = r.Month%12 + 1
		r.clampDay()
	case FieldYear:
		r.Year = (r.Year + 1) % 100
		r.clampDay()
	}
}

// Decrement steps field f down by one, wrapping at the bottom of its range.
func (r *TimeRecord) Decrement(f Field) {
	switch f {
	case FieldHour:
		r.Hour = (r.Hour + 24 - 1) % 24
	case FieldMinute:
		r.Minute = (r.Minute + 60 - 1) % 60
	case FieldSecond:
		r.Second = (r.Second + 60 - 1) % 60
	case FieldWeekday:
		r.Weekday = wrapDown(r.Weekday, 7)
	case FieldDay:
		r.Day = wrapDown(r.Day, MaxDay(r.Month, r.Year))
	case FieldMonth:
		r.Month = wrapDown(r.Month, 12)
		r.clampDay()
	case FieldYear:
		r.Year = (r.Year + 100 - 1) % 100
		r.clampDay()
	}
}

// wrapDown decrements a 1-based value, wrapping below 1 to max. Values above
// max are folded back into range first.
func wrapDown(v, max uint8) uint8 {
	if v <= 1 || v > max+1 {
		return max
	}
	return v - 1
}

// Validate checks every field against its bounds, including the
// month-specific day limit.
func (r TimeRecord) Validate() error {
	for _, f := range Fields {
		if !InRange(f, int(r.Get(f))) {
			return fmt.Errorf("%s=%d: %w", f, r.Get(f), ErrOutOfRange)
		}
	}
	if r.Day > MaxDay(r.Month, r.Year) {
		return fmt.Errorf("date=%d exceeds %d for month %d: %w", r.Day, MaxDay(r.Month, r.Year), r.Month, ErrOutOfRange)
	}
	return nil
}

// String formats the record as "Wed 05/11/25 10:21:00"
func (r TimeRecord) String() string {
	return fmt.Sprintf("%s %02d/%02d/%02d %02d:%02d:%02d",
		WeekdayName(r.Weekday), r.Day, r.Month, r.Year, r.Hour, r.Minute, r.Second)
}
