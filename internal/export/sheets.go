// Package export appends monthly budget summaries to a Google Sheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"paisa/internal/core"
)

// Exporter writes one summary row per export run to a spreadsheet
// tab. Rows append; the sheet keeps the history.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

// New creates an exporter backed by a service account credentials
// file. The spreadsheet must already be shared with the service
// account.
func New(ctx context.Context, spreadsheetID, sheetName, credentialsFile string) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "Reports"
	}
	if credentialsFile == "" {
		return nil, errors.New("missing credentials file")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsFile(credentialsFile),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
	}, nil
}

// ExportSummary appends one row for the month's derived view:
// month, spent, limit, percent used, health score, export time.
func (e *Exporter) ExportSummary(ctx context.Context, dto core.BudgetDTO) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		string(dto.Config.Month),
		dto.Summary.TotalSpent,
		dto.Summary.TotalLimit,
		dto.Summary.PercentUsed,
		dto.Health.Score,
		e.now().UTC().Format(time.RFC3339),
	}

	rng := fmt.Sprintf("%s!A:F", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}
	return nil
}
