package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense  Operation = "expense"
	Income   Operation = "income"
	Transfer Operation = "transfer"
)

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
)

const dateLayout = "2006-01-02"

type (
	Operation   string
	AccountType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Split assigns part of a transaction amount to one account.
	Split struct {
		AccountID string `json:"accountId"`
		Amount    Money  `json:"amount"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidSplits    = errors.New("invalid splits")
	ErrInvalidOperation = errors.New("invalid operation")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as ISO-8601 (YYYY-MM-DD).
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
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

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonthsClamped adds n calendar months keeping the day of month when it
// exists in the target month and clamping to the last day otherwise.
func (d Date) AddMonthsClamped(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return Date{Time: time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)}
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Equal reports whether both dates denote the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (o Operation) Validate() error {
	switch o {
	case Expense, Income, Transfer:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOperation, string(o))
	}
}

// SumSplits returns the total amount of the given splits.
func SumSplits(splits []Split) Money {
	var total int64
	for _, s := range splits {
		total += s.Amount.Cents
	}
	return Money{Cents: total}
}

// ValidateSplits checks that splits is non-empty, every split names an account
// with a positive amount and, when total is positive, that they add up to it.
func ValidateSplits(splits []Split, total Money) error {
	if len(splits) == 0 {
		return fmt.Errorf("%w: no splits", ErrInvalidSplits)
	}
	for i, s := range splits {
		if strings.TrimSpace(s.AccountID) == "" {
			return fmt.Errorf("%w: split %d has no account", ErrInvalidSplits, i)
		}
		if err := s.Amount.Validate(); err != nil {
			return fmt.Errorf("%w: split %d: %v", ErrInvalidSplits, i, err)
		}
	}
	if total.Cents > 0 {
		if sum := SumSplits(splits); sum != total {
			return fmt.Errorf("%w: splits sum to %d, expected %d", ErrInvalidSplits, sum.Cents, total.Cents)
		}
	}
	return nil
}

func cloneSplits(in []Split) []Split {
	if in == nil {
		return nil
	}
	return append([]Split(nil), in...)
}
