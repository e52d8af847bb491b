// internal/sheets/api.go
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// APIFetcher reads the same tabs through the Sheets API with a service
// account, for deployments where the workbook is not published to web.
// The sheetId property of a tab is the same number as its publish gid,
// so callers keep addressing tabs by gid.
type APIFetcher struct {
	srv           *sheetsapi.Service
	spreadsheetID string
}

func NewAPIFetcher(ctx context.Context, credentialsJSON, spreadsheetID string) (*APIFetcher, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must be provided")
	}

	cfg, err := google.JWTConfigFromJSON([]byte(credentialsJSON), sheetsapi.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to build sheets client: %w", err)
	}

	return &APIFetcher{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (f *APIFetcher) FetchSheet(ctx context.Context, gid int) (string, error) {
	title, err := f.sheetTitleByGID(ctx, gid)
	if err != nil {
		return "", err
	}

	values, err := f.srv.Spreadsheets.Values.Get(f.spreadsheetID, title).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read sheet %q: %w", title, err)
	}

	// Render back to CSV so the loaders stay agnostic of the transport.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range values.Values {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("encode sheet %q: %w", title, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode sheet %q: %w", title, err)
	}

	return buf.String(), nil
}

func (f *APIFetcher) sheetTitleByGID(ctx context.Context, gid int) (string, error) {
	meta, err := f.srv.Spreadsheets.Get(f.spreadsheetID).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && int(sh.Properties.SheetId) == gid {
			return sh.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("no sheet with gid %d", gid)
}
