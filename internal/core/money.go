// Package core holds the canonical domain model of the finance tracker
// client: users, categories, transactions and the pure logic around
// amounts, months and pagination. Everything here is free of I/O.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Amounts are always positive: signed
// input, zero and anything non-numeric yield ErrInvalidAmount.
//
// Examples:
//
//	ParseAmountToCents("12.50") -> 1250, nil
//	ParseAmountToCents("12.506") -> 1251, nil
//	ParseAmountToCents("-5") -> 0, ErrInvalidAmount
//	ParseAmountToCents("0") -> 0, ErrInvalidAmount
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsFromFloat converts a wire decimal to cents, rounding half away
// from zero. Transaction amounts arrive non-negative; summary balances
// may carry a sign.
func CentsFromFloat(f float64) int64 {
	if f < 0 {
		return -int64(-f*100 + 0.5)
	}
	return int64(f*100 + 0.5)
}

// Float64 returns the decimal value for wire encoding and display.
// Use cents for arithmetic to avoid floating-point drift.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// FormatBRL renders the amount in Brazilian real notation, the display
// currency of the tracked accounts (e.g. 123456 cents -> "R$ 1.234,56").
func (m Money) FormatBRL() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	// Group thousands with dots.
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(whole[i : i+3])
	}
	s := fmt.Sprintf("R$ %s,%02d", b.String(), cents%100)
	if neg {
		return "-" + s
	}
	return s
}
