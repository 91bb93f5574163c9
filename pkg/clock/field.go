// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clock

// Field selects one settable time/date field. The order is the edit order
// used by both the SetTime mode and the serial update session.
type Field uint8

const (
	FieldHour Field = iota
	FieldMinute
	FieldSecond
	FieldWeekday
	FieldDay
	FieldMonth
	FieldYear
)

// FieldCount is the number of settable time/date fields
const FieldCount = 7

// Fields lists every field in edit order.
var Fields = [FieldCount]Field{
	FieldHour, FieldMinute, FieldSecond, FieldWeekday, FieldDay, FieldMonth, FieldYear,
}

// Next returns the following field, wrapping from Year to Hour.
func (f Field) Next() Field {
	return Field((uint8(f%FieldCount) + 1) % FieldCount)
}

// Prev returns the preceding field, wrapping from Hour to Year.
func (f Field) Prev() Field {
	return Field((uint8(f%FieldCount) + FieldCount - 1) % FieldCount)
}

// IsLast reports whether f is the final field of the edit order.
func (f Field) IsLast() bool {
	return f == FieldYear
}

func (f Field) String() string {
	switch f {
	case FieldHour:
		return "hours"
	case FieldMinute:
		return "minutes"
	case FieldSecond:
		return "seconds"
	case FieldWeekday:
		return "day"
	case FieldDay:
		return "date"
	case FieldMonth:
		return "month"
	case FieldYear:
		return "year"
	default:
		return "unknown"
	}
}

// AlarmField selects one settable alarm field.
type AlarmField uint8

const (
	AlarmHour AlarmField = iota
	AlarmMinute
	AlarmEnabled
)

// AlarmFieldCount is the number of settable alarm fields
const AlarmFieldCount = 3

// Next returns the following alarm field, wrapping from Enabled to Hour.
func (f AlarmField) Next() AlarmField {
	return AlarmField((uint8(f%AlarmFieldCount) + 1) % AlarmFieldCount)
}

// Prev returns the preceding alarm field, wrapping from Hour to Enabled.
func (f AlarmField) Prev() AlarmField {
	return AlarmField((uint8(f%AlarmFieldCount) + AlarmFieldCount - 1) % AlarmFieldCount)
}

func (f AlarmField) String() string {
	switch f {
	case AlarmHour:
		return "alarm hour"
	case AlarmMinute:
		return "alarm minute"
	case AlarmEnabled:
		return "alarm enabled"
	default:
		return "unknown"
	}
}
