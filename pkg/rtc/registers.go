// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rtc provides real-time-clock gateways for the clock appliance.
//
// The Simulator models a DS3231-style device: the timekeeping registers are
// BCD encoded, the weekday register is an independent 1..7 counter and the
// year register holds two digits.
package rtc

import (
	"github.com/Thermoquad/chronostat/pkg/clock"
)

// Register is a timekeeping register address
type Register uint8

const (
	RegSecond Register = iota
	RegMinute
	RegHour
	RegWeekday
	RegDate
	RegMonth
	RegYear
)

// RegisterCount is the number of timekeeping registers
const RegisterCount = 7

// fieldRegisters maps clock fields to their register addresses
var fieldRegisters = map[clock.Field]Register{
	clock.FieldSecond:  RegSecond,
	clock.FieldMinute:  RegMinute,
	clock.FieldHour:    RegHour,
	clock.FieldWeekday: RegWeekday,
	clock.FieldDay:     RegDate,
	clock.FieldMonth:   RegMonth,
	clock.FieldYear:    RegYear,
}

// RegisterFor returns the register address holding field f
func RegisterFor(f clock.Field) Register {
	return fieldRegisters[f]
}

// EncodeBCD converts 0..99 to packed BCD
func EncodeBCD(v uint8) byte {
	return byte((v/10)<<4 | v%10)
}

// DecodeBCD converts packed BCD to binary
func DecodeBCD(b byte) uint8 {
	return uint8(b>>4)*10 + uint8(b&0x0F)
}

// encodeRecord packs a record into register order
func encodeRecord(r clock.TimeRecord) [RegisterCount]byte {
	var regs [RegisterCount]byte
	for f, reg := range fieldRegisters {
		regs[reg] = EncodeBCD(r.Get(f))
	}
	return regs
}

// decodeRecord unpacks registers into a record
func decodeRecord(regs [RegisterCount]byte) clock.TimeRecord {
	var r clock.TimeRecord
	r.Second = DecodeBCD(regs[RegSecond])
	r.Minute = DecodeBCD(regs[RegMinute])
	r.Hour = DecodeBCD(regs[RegHour])
	r.Weekday = DecodeBCD(regs[RegWeekday])
	r.Day = DecodeBCD(regs[RegDate])
	r.Month = DecodeBCD(regs[RegMonth])
	r.Year = DecodeBCD(regs[RegYear])
	return r
}
