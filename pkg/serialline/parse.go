// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialline

import "math"

// ParseNumber reads a leading decimal integer from s the permissive way:
// leading whitespace and one sign are accepted, parsing stops at the first
// non-digit, and text without a leading number yields 0. Results saturate at
// the int32 range.
func ParseNumber(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > math.MaxInt32 {
			n = math.MaxInt32 + 1
		}
	}

	if neg {
		n = -n
		if n < math.MinInt32 {
			n = math.MinInt32
		}
		return n
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return n
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
