package sheets

import (
	"context"
	"strconv"

	"ricorrenze/internal/core"
)

// Ports for outbound adapters.
type (
	// OccurrenceWriter exports a recorded occurrence as one spreadsheet row.
	OccurrenceWriter interface {
		AppendOccurrence(ctx context.Context, info core.ItemRecurrenceInfo) (rowRef string, err error)
	}

	// OccurrenceIndex tells whether an occurrence was already exported, so
	// redelivered events do not produce duplicate rows.
	OccurrenceIndex interface {
		HasOccurrence(ctx context.Context, info core.ItemRecurrenceInfo) (bool, error)
	}

	// Exporter is both.
	Exporter interface {
		OccurrenceWriter
		OccurrenceIndex
	}
)

// RowKey identifies an occurrence in an exported sheet.
func RowKey(templateID string, index int) string {
	return templateID + "#" + strconv.Itoa(index)
}
