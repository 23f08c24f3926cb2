package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Average occurrences of one unit per month, used to amortize a recurring
// amount into a monthly rate.
const (
	daysPerMonth  = 365.25 / 12
	weeksPerMonth = 365.25 / 7 / 12
)

var (
	ErrTemplateNotFound          = errors.New("scheduled transaction not found")
	ErrOccurrenceIndexOutOfRange = errors.New("occurrence index out of range")
)

type (
	// ScheduledTransaction is the template every occurrence is projected from.
	ScheduledTransaction struct {
		ID                string
		Name              string
		CategoryID        string
		SubcategoryID     string
		Store             string
		Operation         Operation
		Amount            Money
		OriginSplits      []Split
		DestinationSplits []Split
		Recurrence        RecurrencePattern
	}

	// AccountClassifier tells whether an account holds assets or liabilities.
	AccountClassifier interface {
		AccountType(accountID string) (AccountType, error)
	}

	// AccountClassifierFunc adapts a function to AccountClassifier.
	AccountClassifierFunc func(accountID string) (AccountType, error)
)

func (f AccountClassifierFunc) AccountType(accountID string) (AccountType, error) {
	return f(accountID)
}

// Validate checks the template. Origin splits must add up to Amount; a
// transfer also needs destination splits, which are validated on their own
// since the receiving side may be denominated differently.
func (st ScheduledTransaction) Validate() error {
	if len(strings.TrimSpace(st.Name)) == 0 {
		return ErrEmptyName
	}
	if len(st.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if strings.TrimSpace(st.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := st.Operation.Validate(); err != nil {
		return err
	}
	if err := st.Amount.Validate(); err != nil {
		return err
	}
	if err := ValidateSplits(st.OriginSplits, st.Amount); err != nil {
		return fmt.Errorf("origin: %w", err)
	}

	if st.Operation == Transfer {
		if err := ValidateSplits(st.DestinationSplits, Money{}); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
	} else if len(st.DestinationSplits) > 0 {
		return fmt.Errorf("%w: destination splits are only allowed on transfers", ErrInvalidSplits)
	}

	if err := st.Recurrence.Validate(); err != nil {
		return err
	}
	return nil
}

// OccurrenceDate returns the date the rule assigns to index.
func (st ScheduledTransaction) OccurrenceDate(index int) (Date, error) {
	d, ok := st.Recurrence.NthOccurrence(index)
	if !ok {
		return Date{}, fmt.Errorf("%w: scheduled transaction %s has no occurrence %d", ErrOccurrenceIndexOutOfRange, st.ID, index)
	}
	return d, nil
}

// OccurrencesPerMonth is the average number of occurrences in a month.
// One-time templates have no monthly rate.
func (st ScheduledTransaction) OccurrencesPerMonth() float64 {
	f := st.Recurrence.Frequency
	if st.Recurrence.Type == OneTime || f == nil || f.Count <= 0 {
		return 0
	}
	var perUnit float64
	switch f.Unit {
	case Day:
		perUnit = daysPerMonth
	case Week:
		perUnit = weeksPerMonth
	case Month:
		perUnit = 1
	case Year:
		perUnit = 1.0 / 12
	}
	return perUnit / float64(f.Count)
}

// PricePerMonth amortizes the template into a signed monthly cash-flow rate.
// Expenses are negative and incomes positive. A transfer counts as the net
// movement of asset accounts: money arriving on assets minus money leaving them.
func (st ScheduledTransaction) PricePerMonth(classifier AccountClassifier) (Money, error) {
	var signed int64
	switch st.Operation {
	case Expense:
		signed = -st.Amount.Cents
	case Income:
		signed = st.Amount.Cents
	case Transfer:
		if classifier == nil {
			return Money{}, errors.New("account classifier is required for transfers")
		}
		in, err := assetTotal(st.DestinationSplits, classifier)
		if err != nil {
			return Money{}, err
		}
		out, err := assetTotal(st.OriginSplits, classifier)
		if err != nil {
			return Money{}, err
		}
		signed = in - out
	default:
		return Money{}, st.Operation.Validate()
	}
	return Money{Cents: int64(math.Round(float64(signed) * st.OccurrencesPerMonth()))}, nil
}

func assetTotal(splits []Split, classifier AccountClassifier) (int64, error) {
	var total int64
	for _, s := range splits {
		kind, err := classifier.AccountType(s.AccountID)
		if err != nil {
			return 0, fmt.Errorf("classify account %s: %w", s.AccountID, err)
		}
		if kind == Asset {
			total += s.Amount.Cents
		}
	}
	return total, nil
}

// Clone returns a deep copy so callers cannot alias the split slices.
func (st ScheduledTransaction) Clone() ScheduledTransaction {
	out := st
	out.OriginSplits = cloneSplits(st.OriginSplits)
	out.DestinationSplits = cloneSplits(st.DestinationSplits)
	if st.Recurrence.Frequency != nil {
		f := *st.Recurrence.Frequency
		out.Recurrence.Frequency = &f
	}
	if st.Recurrence.EndDate != nil {
		d := *st.Recurrence.EndDate
		out.Recurrence.EndDate = &d
	}
	if st.Recurrence.MaxOccurrences != nil {
		n := *st.Recurrence.MaxOccurrences
		out.Recurrence.MaxOccurrences = &n
	}
	return out
}
