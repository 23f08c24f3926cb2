package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxMoneyUnits = (1<<63 - 1) / 100

// ParseMoney reads a decimal amount such as "12.34", "12,5" or "-3". Either
// a dot or a comma separates at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	sign := int64(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	units, frac, found := strings.Cut(strings.Replace(s, ",", ".", 1), ".")
	if units == "" || (found && (frac == "" || len(frac) > 2)) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !isDigits(units) || !isDigits(frac) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	u, err := strconv.ParseInt(units, 10, 64)
	if err != nil || u > maxMoneyUnits {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	var cents int64
	if frac != "" {
		cents, _ = strconv.ParseInt(frac, 10, 64)
		if len(frac) == 1 {
			cents *= 10
		}
	}
	return Money{Cents: sign * (u*100 + cents)}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Euros returns the euro value as a float64 for display purposes.
// This method is primarily used for formatting money amounts in user interfaces.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with two decimals and a dot separator.
func (m Money) String() string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON encodes money as an integer number of cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

// UnmarshalJSON accepts an integer number of cents or a decimal string
// parsed by ParseMoney.
func (m *Money) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		parsed, err := ParseMoney(raw)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.Cents = cents
	return nil
}
