package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ricorrenze/internal/core"
)

const (
	maxBodyBytes       = 1 << 20
	defaultWindowDays  = 365
	maxWindowDays      = 3650
	defaultHorizonDays = 30
	maxHorizonDays     = 3650
)

// badRequestError marks malformed input, as opposed to input that parses
// but fails domain validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

type recurrenceDTO struct {
	Type           core.RecurrenceType `json:"type"`
	StartDate      core.Date           `json:"startDate"`
	Frequency      string              `json:"frequency,omitempty"`
	EndDate        *core.Date          `json:"endDate,omitempty"`
	MaxOccurrences *int                `json:"maxOccurrences,omitempty"`
}

type templateDTO struct {
	ID                string         `json:"id,omitempty"`
	Name              string         `json:"name"`
	CategoryID        string         `json:"categoryId"`
	SubcategoryID     string         `json:"subcategoryId,omitempty"`
	Store             string         `json:"store,omitempty"`
	Operation         core.Operation `json:"operation"`
	Amount            core.Money     `json:"amount"`
	OriginSplits      []core.Split   `json:"originSplits"`
	DestinationSplits []core.Split   `json:"destinationSplits,omitempty"`
	Recurrence        recurrenceDTO  `json:"recurrence"`
	// TotalOccurrences is null for infinite series.
	TotalOccurrences *int `json:"totalOccurrences"`
}

type overridesDTO struct {
	Date              *core.Date   `json:"date,omitempty"`
	OriginSplits      []core.Split `json:"originSplits,omitempty"`
	DestinationSplits []core.Split `json:"destinationSplits,omitempty"`
}

func (o overridesDTO) toCore() core.OccurrenceOverrides {
	return core.OccurrenceOverrides{
		Date:              o.Date,
		OriginSplits:      o.OriginSplits,
		DestinationSplits: o.DestinationSplits,
	}
}

func (t templateDTO) toCore() (core.ScheduledTransaction, error) {
	p := core.RecurrencePattern{
		Type:           core.RecurrenceType(strings.ToUpper(strings.TrimSpace(string(t.Recurrence.Type)))),
		StartDate:      t.Recurrence.StartDate,
		EndDate:        t.Recurrence.EndDate,
		MaxOccurrences: t.Recurrence.MaxOccurrences,
	}
	if t.Recurrence.Frequency != "" {
		f, err := core.ParseFrequency(t.Recurrence.Frequency)
		if err != nil {
			return core.ScheduledTransaction{}, err
		}
		p.Frequency = &f
	}
	return core.ScheduledTransaction{
		ID:                t.ID,
		Name:              strings.TrimSpace(t.Name),
		CategoryID:        strings.TrimSpace(t.CategoryID),
		SubcategoryID:     strings.TrimSpace(t.SubcategoryID),
		Store:             strings.TrimSpace(t.Store),
		Operation:         core.Operation(strings.ToLower(strings.TrimSpace(string(t.Operation)))),
		Amount:            t.Amount,
		OriginSplits:      t.OriginSplits,
		DestinationSplits: t.DestinationSplits,
		Recurrence:        p,
	}, nil
}

func templateFromCore(st core.ScheduledTransaction) templateDTO {
	dto := templateDTO{
		ID:                st.ID,
		Name:              st.Name,
		CategoryID:        st.CategoryID,
		SubcategoryID:     st.SubcategoryID,
		Store:             st.Store,
		Operation:         st.Operation,
		Amount:            st.Amount,
		OriginSplits:      st.OriginSplits,
		DestinationSplits: st.DestinationSplits,
		Recurrence: recurrenceDTO{
			Type:           st.Recurrence.Type,
			StartDate:      st.Recurrence.StartDate,
			EndDate:        st.Recurrence.EndDate,
			MaxOccurrences: st.Recurrence.MaxOccurrences,
		},
	}
	if st.Recurrence.Frequency != nil {
		dto.Recurrence.Frequency = st.Recurrence.Frequency.String()
	}
	if count, infinite := st.Recurrence.TotalOccurrences(); !infinite {
		dto.TotalOccurrences = &count
	}
	return dto
}

// decodeJSON reads a single JSON object, rejecting unknown fields. An empty
// body leaves v untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		// Bad dates and money surface here and are domain validation errors.
		for _, target := range validationErrors {
			if errors.Is(err, target) {
				return err
			}
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, badRequest("invalid occurrence index %q", raw)
	}
	return index, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string, fallback core.Date) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, badRequest("invalid %s: %v", key, err)
	}
	return d, nil
}

func queryDays(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 || days > maxHorizonDays {
		return 0, badRequest("invalid %s %q: must be between 0 and %d", key, raw, maxHorizonDays)
	}
	return days, nil
}

// liabilityClassifier treats the comma separated account ids in the
// liabilities parameter as liabilities and every other account as an asset.
func liabilityClassifier(r *http.Request) core.AccountClassifier {
	liabilities := make(map[string]bool)
	for _, id := range strings.Split(r.URL.Query().Get("liabilities"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			liabilities[id] = true
		}
	}
	return core.AccountClassifierFunc(func(accountID string) (core.AccountType, error) {
		if liabilities[accountID] {
			return core.Liability, nil
		}
		return core.Asset, nil
	})
}

func today(now time.Time) core.Date {
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
