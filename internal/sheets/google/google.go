package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"ricorrenze/internal/core"
	ports "ricorrenze/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Columns of the export sheet, A to J.
var header = []any{"Key", "Date", "Original date", "Name", "Category", "Subcategory", "Operation", "Amount", "Origin", "Destination"}

// Client appends recorded occurrences to a yearly sheet ("2024 Ricorrenze").
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.Exporter = (*Client)(nil)

// New creates a Sheets client for spreadsheetID using service account
// credentials from the environment. sheetBase defaults to "Ricorrenze".
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Ricorrenze"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsScope)
	return service, nil
}

// AppendOccurrence writes one row to the sheet of the occurrence's year,
// adding the header when the sheet is empty.
func (c *Client) AppendOccurrence(ctx context.Context, info core.ItemRecurrenceInfo) (string, error) {
	if info.ScheduledTransactionID == "" {
		return "", errors.New("occurrence has no scheduled transaction id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, info.Date.Year())
	keys, err := c.readKeys(ctx, sheet)
	if err != nil {
		return "", err
	}

	values := [][]any{rowValues(info)}
	if len(keys) == 0 {
		values = append([][]any{header}, values...)
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A:J", sheet), &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Occurrence exported to sheet",
		"template_id", info.ScheduledTransactionID,
		"occurrence_index", info.OccurrenceIndex,
		"range", ref)
	return ref, nil
}

// HasOccurrence looks the occurrence key up in column A of its yearly sheet.
func (c *Client) HasOccurrence(ctx context.Context, info core.ItemRecurrenceInfo) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	keys, err := c.readKeys(ctx, yearPrefixedName(c.sheetBase, info.Date.Year()))
	if err != nil {
		return false, err
	}
	_, ok := keys[ports.RowKey(info.ScheduledTransactionID, info.OccurrenceIndex)]
	return ok, nil
}

func (c *Client) readKeys(ctx context.Context, sheet string) (map[string]struct{}, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseKeys(resp.Values), nil
}

// parseKeys collects the occurrence keys of column A, skipping the header
// and blank cells.
func parseKeys(values [][]any) map[string]struct{} {
	keys := make(map[string]struct{}, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || (i == 0 && strings.EqualFold(v, "key")) {
			continue
		}
		keys[v] = struct{}{}
	}
	return keys
}

func rowValues(info core.ItemRecurrenceInfo) []any {
	return []any{
		ports.RowKey(info.ScheduledTransactionID, info.OccurrenceIndex),
		info.Date.String(),
		info.OriginalDate.String(),
		info.Name,
		info.CategoryID,
		info.SubcategoryID,
		string(info.Operation),
		signedAmount(info).Euros(),
		formatSplits(info.OriginSplits),
		formatSplits(info.DestinationSplits),
	}
}

// signedAmount is negative for expenses and positive otherwise.
func signedAmount(info core.ItemRecurrenceInfo) core.Money {
	if info.Operation == core.Expense {
		return core.Money{Cents: -info.Amount.Cents}
	}
	return info.Amount
}

func formatSplits(splits []core.Split) string {
	parts := make([]string, 0, len(splits))
	for _, s := range splits {
		parts = append(parts, s.AccountID+" "+s.Amount.String())
	}
	return strings.Join(parts, "; ")
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
