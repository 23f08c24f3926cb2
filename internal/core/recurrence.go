package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	OneTime      RecurrenceType = "ONE_TIME"
	Infinite     RecurrenceType = "INFINITE"
	UntilDate    RecurrenceType = "UNTIL_DATE"
	NOccurrences RecurrenceType = "N_OCCURRENCES"
)

const (
	Day   FrequencyUnit = "day"
	Week  FrequencyUnit = "week"
	Month FrequencyUnit = "month"
	Year  FrequencyUnit = "year"
)

type (
	RecurrenceType string
	FrequencyUnit  string

	// Frequency is the step between two consecutive occurrences.
	Frequency struct {
		Count int
		Unit  FrequencyUnit
	}

	// RecurrencePattern turns a start date, a frequency and a bound into a
	// sequence of occurrence dates indexed from zero.
	RecurrencePattern struct {
		Type           RecurrenceType
		StartDate      Date
		Frequency      *Frequency
		EndDate        *Date
		MaxOccurrences *int
	}
)

var ErrInvalidRecurrenceRule = errors.New("invalid recurrence rule")

func (t RecurrenceType) Validate() error {
	switch t {
	case OneTime, Infinite, UntilDate, NOccurrences:
		return nil
	default:
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidRecurrenceRule, string(t))
	}
}

func (f Frequency) Validate() error {
	if f.Count <= 0 {
		return fmt.Errorf("%w: frequency count must be positive, got %d", ErrInvalidRecurrenceRule, f.Count)
	}
	switch f.Unit {
	case Day, Week, Month, Year:
		return nil
	default:
		return fmt.Errorf("%w: unknown frequency unit %q", ErrInvalidRecurrenceRule, string(f.Unit))
	}
}

var unitCodes = map[FrequencyUnit]string{
	Day:   "d",
	Week:  "w",
	Month: "mo",
	Year:  "y",
}

// String encodes the frequency in its compact form ("1mo", "2w", "3d", "1y").
func (f Frequency) String() string {
	return strconv.Itoa(f.Count) + unitCodes[f.Unit]
}

// ParseFrequency decodes the compact frequency form produced by String.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return Frequency{}, fmt.Errorf("%w: malformed frequency %q", ErrInvalidRecurrenceRule, s)
	}
	count, err := strconv.Atoi(s[:i])
	if err != nil {
		return Frequency{}, fmt.Errorf("%w: malformed frequency %q", ErrInvalidRecurrenceRule, s)
	}
	var unit FrequencyUnit
	for u, code := range unitCodes {
		if code == s[i:] {
			unit = u
		}
	}
	if unit == "" {
		return Frequency{}, fmt.Errorf("%w: unknown frequency unit in %q", ErrInvalidRecurrenceRule, s)
	}
	f := Frequency{Count: count, Unit: unit}
	if err := f.Validate(); err != nil {
		return Frequency{}, err
	}
	return f, nil
}

// step returns the date of occurrence n for a pattern starting at start.
// Months and years are always computed from start, so a rule starting on
// the 31st lands on the 31st whenever the target month has one.
func (f Frequency) step(start Date, n int) Date {
	switch f.Unit {
	case Day:
		return start.AddDays(n * f.Count)
	case Week:
		return start.AddDays(7 * n * f.Count)
	case Month:
		return start.AddMonthsClamped(n * f.Count)
	case Year:
		return start.AddMonthsClamped(12 * n * f.Count)
	}
	return start
}

// NewOneTimePattern builds a pattern with a single occurrence on start.
func NewOneTimePattern(start Date) (RecurrencePattern, error) {
	p := RecurrencePattern{Type: OneTime, StartDate: start}
	return p, p.Validate()
}

// NewInfinitePattern builds an unbounded pattern.
func NewInfinitePattern(start Date, freq Frequency) (RecurrencePattern, error) {
	p := RecurrencePattern{Type: Infinite, StartDate: start, Frequency: &freq}
	return p, p.Validate()
}

// NewUntilDatePattern builds a pattern whose occurrences stop after end.
func NewUntilDatePattern(start Date, freq Frequency, end Date) (RecurrencePattern, error) {
	p := RecurrencePattern{Type: UntilDate, StartDate: start, Frequency: &freq, EndDate: &end}
	return p, p.Validate()
}

// NewNOccurrencesPattern builds a pattern capped at limit occurrences.
func NewNOccurrencesPattern(start Date, freq Frequency, limit int) (RecurrencePattern, error) {
	p := RecurrencePattern{Type: NOccurrences, StartDate: start, Frequency: &freq, MaxOccurrences: &limit}
	return p, p.Validate()
}

// Validate enforces the shape of the rule for its declared type.
func (p RecurrencePattern) Validate() error {
	if err := p.Type.Validate(); err != nil {
		return err
	}
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("%w: start date: %v", ErrInvalidRecurrenceRule, err)
	}

	if p.Type == OneTime {
		if p.Frequency != nil {
			return fmt.Errorf("%w: one-time rule cannot have a frequency", ErrInvalidRecurrenceRule)
		}
	} else {
		if p.Frequency == nil {
			return fmt.Errorf("%w: %s rule requires a frequency", ErrInvalidRecurrenceRule, p.Type)
		}
		if err := p.Frequency.Validate(); err != nil {
			return err
		}
	}

	switch p.Type {
	case UntilDate:
		if p.EndDate == nil || p.EndDate.IsZero() {
			return fmt.Errorf("%w: UNTIL_DATE rule requires an end date", ErrInvalidRecurrenceRule)
		}
		if p.MaxOccurrences != nil {
			return fmt.Errorf("%w: UNTIL_DATE rule cannot have max occurrences", ErrInvalidRecurrenceRule)
		}
		if p.EndDate.Before(p.StartDate) {
			return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRecurrenceRule, p.EndDate, p.StartDate)
		}
	case NOccurrences:
		if p.MaxOccurrences == nil {
			return fmt.Errorf("%w: N_OCCURRENCES rule requires max occurrences", ErrInvalidRecurrenceRule)
		}
		if *p.MaxOccurrences <= 0 {
			return fmt.Errorf("%w: max occurrences must be positive, got %d", ErrInvalidRecurrenceRule, *p.MaxOccurrences)
		}
		if p.EndDate != nil {
			return fmt.Errorf("%w: N_OCCURRENCES rule cannot have an end date", ErrInvalidRecurrenceRule)
		}
	default:
		if p.EndDate != nil || p.MaxOccurrences != nil {
			return fmt.Errorf("%w: %s rule cannot have a bound", ErrInvalidRecurrenceRule, p.Type)
		}
	}
	return nil
}

// NthOccurrence returns the date of occurrence n and false when the rule
// does not produce that index.
func (p RecurrencePattern) NthOccurrence(n int) (Date, bool) {
	if n < 0 {
		return Date{}, false
	}
	if p.Type == OneTime || p.Frequency == nil {
		if n != 0 {
			return Date{}, false
		}
		return p.StartDate, true
	}

	if p.Type == NOccurrences && p.MaxOccurrences != nil && n >= *p.MaxOccurrences {
		return Date{}, false
	}

	candidate := p.Frequency.step(p.StartDate, n)
	if p.Type == UntilDate && p.EndDate != nil && candidate.After(*p.EndDate) {
		return Date{}, false
	}
	return candidate, true
}

// TotalOccurrences returns the number of occurrences the rule produces, or
// infinite=true for unbounded rules.
func (p RecurrencePattern) TotalOccurrences() (count int, infinite bool) {
	switch p.Type {
	case OneTime:
		return 1, false
	case NOccurrences:
		if p.MaxOccurrences == nil || *p.MaxOccurrences < 0 {
			return 0, false
		}
		return *p.MaxOccurrences, false
	case Infinite:
		return 0, true
	case UntilDate:
		return p.untilDateCount(), false
	}
	return 0, false
}

func (p RecurrencePattern) untilDateCount() int {
	if p.EndDate == nil || p.Frequency == nil || p.Frequency.Count <= 0 {
		return 0
	}
	end := *p.EndDate
	if p.StartDate.After(end) {
		return 0
	}

	var k int
	switch p.Frequency.Unit {
	case Day, Week:
		stepDays := p.Frequency.Count
		if p.Frequency.Unit == Week {
			stepDays *= 7
		}
		days := int(end.Sub(p.StartDate.Time).Hours() / 24)
		return days/stepDays + 1
	case Month, Year:
		stepMonths := p.Frequency.Count
		if p.Frequency.Unit == Year {
			stepMonths *= 12
		}
		months := (end.Year()-p.StartDate.Year())*12 + end.Month() - p.StartDate.Month()
		k = months / stepMonths
	}

	// Clamping can move a month-based candidate past the end date.
	for k >= 0 {
		if _, ok := p.NthOccurrence(k); ok {
			break
		}
		k--
	}
	return k + 1
}

// IsFinite reports whether the rule produces a bounded number of occurrences.
func (p RecurrencePattern) IsFinite() bool {
	_, infinite := p.TotalOccurrences()
	return !infinite
}

// Encode returns the pattern fields in their persisted string form.
func (p RecurrencePattern) Encode() (frequency, endDate string, maxOccurrences int) {
	if p.Frequency != nil {
		frequency = p.Frequency.String()
	}
	if p.EndDate != nil {
		endDate = p.EndDate.String()
	}
	if p.MaxOccurrences != nil {
		maxOccurrences = *p.MaxOccurrences
	}
	return frequency, endDate, maxOccurrences
}

// DecodePattern rebuilds a pattern from its persisted string form.
// Empty strings and a zero max mean "not set".
func DecodePattern(typ, start, frequency, endDate string, maxOccurrences int) (RecurrencePattern, error) {
	p := RecurrencePattern{Type: RecurrenceType(strings.ToUpper(strings.TrimSpace(typ)))}
	var err error
	if p.StartDate, err = ParseDate(start); err != nil {
		return RecurrencePattern{}, fmt.Errorf("%w: %v", ErrInvalidRecurrenceRule, err)
	}
	if frequency != "" {
		f, err := ParseFrequency(frequency)
		if err != nil {
			return RecurrencePattern{}, err
		}
		p.Frequency = &f
	}
	if endDate != "" {
		end, err := ParseDate(endDate)
		if err != nil {
			return RecurrencePattern{}, fmt.Errorf("%w: %v", ErrInvalidRecurrenceRule, err)
		}
		p.EndDate = &end
	}
	if maxOccurrences != 0 {
		p.MaxOccurrences = &maxOccurrences
	}
	return p, nil
}
