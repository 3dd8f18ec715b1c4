package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when the amount string cannot be parsed
// or is not a positive value.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a locale-tolerant decimal string ("12.90" or "12,90")
// into currency minor units. Rounding to the nearest cent keeps amounts that
// differ only by floating-point representation equal in the ledger.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	// Front-ends in comma-decimal locales send "12,90".
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}

	return int64(math.Round(v * 100)), nil
}
