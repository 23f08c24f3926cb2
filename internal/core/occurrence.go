package core

// ItemRecurrenceInfo is the effective view of one occurrence: the template
// merged with its modification, if any. It is never persisted.
type ItemRecurrenceInfo struct {
	ScheduledTransactionID string            `json:"scheduledTransactionId"`
	OccurrenceIndex        int               `json:"occurrenceIndex"`
	Date                   Date              `json:"date"`
	OriginalDate           Date              `json:"originalDate"`
	State                  ModificationState `json:"state"`
	Name                   string            `json:"name"`
	CategoryID             string            `json:"categoryId"`
	SubcategoryID          string            `json:"subcategoryId,omitempty"`
	Store                  string            `json:"store,omitempty"`
	Operation              Operation         `json:"operation"`
	OriginSplits           []Split           `json:"originSplits"`
	DestinationSplits      []Split           `json:"destinationSplits,omitempty"`
	Amount                 Money             `json:"amount"`
	Modified               bool              `json:"modified"`
}

// FromScheduledTransaction materializes an occurrence that has no modification.
func FromScheduledTransaction(st ScheduledTransaction, index int, computedDate Date) ItemRecurrenceInfo {
	info := baseInfo(st, index)
	info.Date = computedDate
	info.OriginalDate = computedDate
	info.State = StatePending
	info.OriginSplits = cloneSplits(st.OriginSplits)
	info.DestinationSplits = cloneSplits(st.DestinationSplits)
	info.Amount = SumSplits(info.OriginSplits)
	return info
}

// FromModification materializes an occurrence from its modification, falling
// back to the template for every override that is not set.
func FromModification(st ScheduledTransaction, m RecurrenceModification) ItemRecurrenceInfo {
	info := baseInfo(st, m.OccurrenceIndex)
	info.OriginalDate = m.OriginalDate
	info.Date = m.OriginalDate
	if m.Date != nil {
		info.Date = *m.Date
	}
	info.State = m.State
	info.OriginSplits = cloneSplits(st.OriginSplits)
	if len(m.OriginSplits) > 0 {
		info.OriginSplits = cloneSplits(m.OriginSplits)
	}
	info.DestinationSplits = cloneSplits(st.DestinationSplits)
	if len(m.DestinationSplits) > 0 {
		info.DestinationSplits = cloneSplits(m.DestinationSplits)
	}
	info.Amount = SumSplits(info.OriginSplits)
	info.Modified = m.HasModifications()
	return info
}

// Materialize picks the right constructor depending on whether a
// modification exists for the occurrence.
func Materialize(st ScheduledTransaction, index int, computedDate Date, m *RecurrenceModification) ItemRecurrenceInfo {
	if m == nil {
		return FromScheduledTransaction(st, index, computedDate)
	}
	return FromModification(st, *m)
}

// IsPending reports whether the occurrence still awaits user action.
func (i ItemRecurrenceInfo) IsPending() bool {
	return i.State == StatePending
}

func baseInfo(st ScheduledTransaction, index int) ItemRecurrenceInfo {
	return ItemRecurrenceInfo{
		ScheduledTransactionID: st.ID,
		OccurrenceIndex:        index,
		Name:                   st.Name,
		CategoryID:             st.CategoryID,
		SubcategoryID:          st.SubcategoryID,
		Store:                  st.Store,
		Operation:              st.Operation,
	}
}
