package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount indicates a malformed or negative monetary value.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a fixed-point monetary value carrying exactly two fractional
// digits, stored as cents. Arithmetic on Amount is exact; there is no
// floating point anywhere on the money path.
type Amount int64

// ParseAmount converts a decimal string to an Amount. Both dot and comma
// decimal separators are accepted. A third fractional digit rounds half-up.
// Signs are rejected: expense amounts are always positive.
func ParseAmount(s string) (Amount, error) {
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
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
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

	return Amount(iv*100 + fracCents), nil
}

// AmountFromUnits converts whole currency units to an Amount.
func AmountFromUnits(units int64) Amount {
	return Amount(units * 100)
}

// Cents returns the raw cent value.
func (a Amount) Cents() int64 { return int64(a) }

// String formats the amount as a plain decimal with two fractional digits.
func (a Amount) String() string {
	c := int64(a)
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON emits the amount as an unquoted decimal literal, e.g. 749.50.
// Formatting from cents keeps the JSON representation exact.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" {
		return ErrInvalidAmount
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
