package core

import (
	"errors"
	"testing"
)

func weeklyExpense(t *testing.T) ScheduledTransaction {
	t.Helper()
	p, err := NewInfinitePattern(NewDate(2024, 1, 1), Frequency{Count: 1, Unit: Week})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	return ScheduledTransaction{
		ID:           "tpl-1",
		Name:         "Groceries",
		CategoryID:   "food",
		Operation:    Expense,
		Amount:       Money{Cents: 1000},
		OriginSplits: []Split{{AccountID: "checking", Amount: Money{Cents: 1000}}},
		Recurrence:   p,
	}
}

func TestScheduledTransactionValidate(t *testing.T) {
	if err := weeklyExpense(t).Validate(); err != nil {
		t.Fatalf("expected valid template, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ScheduledTransaction)
		want   error
	}{
		{"empty name", func(st *ScheduledTransaction) { st.Name = "  " }, ErrEmptyName},
		{"empty category", func(st *ScheduledTransaction) { st.CategoryID = "" }, ErrEmptyCategory},
		{"unknown operation", func(st *ScheduledTransaction) { st.Operation = "gift" }, ErrInvalidOperation},
		{"zero amount", func(st *ScheduledTransaction) { st.Amount = Money{} }, ErrInvalidAmount},
		{"splits do not sum", func(st *ScheduledTransaction) { st.OriginSplits[0].Amount = Money{Cents: 999} }, ErrInvalidSplits},
		{"no origin splits", func(st *ScheduledTransaction) { st.OriginSplits = nil }, ErrInvalidSplits},
		{"destination on expense", func(st *ScheduledTransaction) {
			st.DestinationSplits = []Split{{AccountID: "savings", Amount: Money{Cents: 1000}}}
		}, ErrInvalidSplits},
		{"transfer without destination", func(st *ScheduledTransaction) { st.Operation = Transfer }, ErrInvalidSplits},
		{"broken rule", func(st *ScheduledTransaction) { st.Recurrence.Frequency = &Frequency{Count: 0, Unit: Day} }, ErrInvalidRecurrenceRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := weeklyExpense(t)
			tt.mutate(&st)
			if err := st.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransferDestinationTotalMayDiffer(t *testing.T) {
	st := weeklyExpense(t)
	st.Operation = Transfer
	st.DestinationSplits = []Split{
		{AccountID: "usd-savings", Amount: Money{Cents: 700}},
		{AccountID: "usd-brokerage", Amount: Money{Cents: 400}},
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("expected valid transfer, got %v", err)
	}
}

func TestOccurrenceDate(t *testing.T) {
	st := weeklyExpense(t)
	limit := 2
	st.Recurrence.Type = NOccurrences
	st.Recurrence.MaxOccurrences = &limit

	d, err := st.OccurrenceDate(1)
	if err != nil || !d.Equal(NewDate(2024, 1, 8)) {
		t.Fatalf("OccurrenceDate(1) = %s, %v", d, err)
	}
	if _, err := st.OccurrenceDate(2); !errors.Is(err, ErrOccurrenceIndexOutOfRange) {
		t.Fatalf("OccurrenceDate(2) error = %v, want ErrOccurrenceIndexOutOfRange", err)
	}
}

func TestPricePerMonth(t *testing.T) {
	classifier := AccountClassifierFunc(func(id string) (AccountType, error) {
		switch id {
		case "checking", "savings":
			return Asset, nil
		case "credit-card", "mortgage":
			return Liability, nil
		}
		return "", errors.New("unknown account")
	})

	monthly := func(op Operation, origin, dest []Split, freq Frequency) ScheduledTransaction {
		p, err := NewInfinitePattern(NewDate(2024, 1, 1), freq)
		if err != nil {
			t.Fatalf("pattern: %v", err)
		}
		return ScheduledTransaction{
			ID: "x", Name: "x", CategoryID: "c", Operation: op,
			Amount:       SumSplits(origin),
			OriginSplits: origin, DestinationSplits: dest, Recurrence: p,
		}
	}
	one := func(acc string, cents int64) []Split { return []Split{{AccountID: acc, Amount: Money{Cents: cents}}} }

	tests := []struct {
		name string
		st   ScheduledTransaction
		want int64
	}{
		{"monthly expense", monthly(Expense, one("checking", 5000), nil, Frequency{Count: 1, Unit: Month}), -5000},
		{"monthly income", monthly(Income, one("checking", 250000), nil, Frequency{Count: 1, Unit: Month}), 250000},
		{"yearly expense", monthly(Expense, one("checking", 12000), nil, Frequency{Count: 1, Unit: Year}), -1000},
		{"bimonthly expense", monthly(Expense, one("checking", 1000), nil, Frequency{Count: 2, Unit: Month}), -500},
		{"weekly expense", monthly(Expense, one("checking", 1000), nil, Frequency{Count: 1, Unit: Week}), -4348},
		{"daily income", monthly(Income, one("checking", 100), nil, Frequency{Count: 1, Unit: Day}), 3044},
		{"asset to asset transfer", monthly(Transfer, one("checking", 1000), one("savings", 1000), Frequency{Count: 1, Unit: Month}), 0},
		{"asset to liability transfer", monthly(Transfer, one("checking", 1000), one("credit-card", 1000), Frequency{Count: 1, Unit: Month}), -1000},
		{"liability to asset transfer", monthly(Transfer, one("credit-card", 1000), one("checking", 1000), Frequency{Count: 1, Unit: Month}), 1000},
		{"liability to liability transfer", monthly(Transfer, one("credit-card", 1000), one("mortgage", 1000), Frequency{Count: 1, Unit: Month}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.st.PricePerMonth(classifier)
			if err != nil {
				t.Fatalf("PricePerMonth() error: %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("PricePerMonth() = %d, want %d", got.Cents, tt.want)
			}
		})
	}

	t.Run("one-time has no monthly rate", func(t *testing.T) {
		st := weeklyExpense(t)
		p, _ := NewOneTimePattern(NewDate(2024, 1, 1))
		st.Recurrence = p
		got, err := st.PricePerMonth(classifier)
		if err != nil || got.Cents != 0 {
			t.Fatalf("PricePerMonth() = %d, %v", got.Cents, err)
		}
	})

	t.Run("classifier errors surface", func(t *testing.T) {
		st := monthly(Transfer, one("unknown", 1000), one("checking", 1000), Frequency{Count: 1, Unit: Month})
		if _, err := st.PricePerMonth(classifier); err == nil {
			t.Fatalf("expected classifier error")
		}
	})
}

func TestCloneDoesNotAlias(t *testing.T) {
	st := weeklyExpense(t)
	c := st.Clone()
	c.OriginSplits[0].AccountID = "other"
	c.Recurrence.Frequency.Count = 9
	if st.OriginSplits[0].AccountID != "checking" || st.Recurrence.Frequency.Count != 1 {
		t.Fatalf("clone aliases the original")
	}
}
