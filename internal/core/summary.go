package core

// OccurrenceSummary counts a list of occurrences by state.
type OccurrenceSummary struct {
	Total         int   `json:"total"`
	Pending       int   `json:"pending"`
	Completed     int   `json:"completed"`
	Skipped       int   `json:"skipped"`
	Deleted       int   `json:"deleted"`
	PendingAmount Money `json:"pendingAmount"`
}

// Summarize aggregates occurrences. Deleted occurrences are counted but do
// not contribute to amounts.
func Summarize(items []ItemRecurrenceInfo) OccurrenceSummary {
	var s OccurrenceSummary
	for _, it := range items {
		s.Total++
		switch it.State {
		case StatePending:
			s.Pending++
			s.PendingAmount.Cents += it.Amount.Cents
		case StateCompleted:
			s.Completed++
		case StateSkipped:
			s.Skipped++
		case StateDeleted:
			s.Deleted++
		}
	}
	return s
}
