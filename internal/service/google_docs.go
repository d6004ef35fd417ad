package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jjenkins/billtracker/internal/apperr"
	"github.com/jjenkins/billtracker/internal/model"
	"github.com/jjenkins/billtracker/internal/sheets"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const wrapStrategy = "WRAP"

// GoogleDocs creates spreadsheets with the Sheets API and shares them with the Drive API
type GoogleDocs struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// GoogleClientOptions builds client options from service account JSON or a path to it
func GoogleClientOptions(credentials string) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveFileScope)}
	creds := strings.TrimSpace(credentials)
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// NewGoogleDocs creates the Sheets and Drive clients
func NewGoogleDocs(ctx context.Context, opts ...option.ClientOption) (*GoogleDocs, error) {
	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &GoogleDocs{sheets: sheetsSvc, drive: driveSvc}, nil
}

// CreateSpreadsheet creates a spreadsheet owned by the service account
func (g *GoogleDocs) CreateSpreadsheet(ctx context.Context, doc *sheets.Document) (*model.SpreadsheetRef, error) {
	resp, err := g.sheets.Spreadsheets.Create(toSpreadsheet(doc)).Context(ctx).Do()
	if err != nil {
		return nil, googleError(err, "failed to create spreadsheet %q", doc.Title)
	}
	return &model.SpreadsheetRef{ID: resp.SpreadsheetId, URL: resp.SpreadsheetUrl}, nil
}

// GetSpreadsheetCells returns the displayed text of the first sheet
func (g *GoogleDocs) GetSpreadsheetCells(ctx context.Context, spreadsheetID string) ([][]string, error) {
	resp, err := g.sheets.Spreadsheets.Get(spreadsheetID).IncludeGridData(true).Context(ctx).Do()
	if err != nil {
		return nil, googleError(err, "failed to get spreadsheet %s", spreadsheetID)
	}
	return rawCells(resp), nil
}

// GrantPublicEdit lets anyone with the link edit the file
func (g *GoogleDocs) GrantPublicEdit(ctx context.Context, fileID string) error {
	perm := &drive.Permission{Type: "anyone", Role: "writer"}
	if _, err := g.drive.Permissions.Create(fileID, perm).Fields("id").Context(ctx).Do(); err != nil {
		return googleError(err, "failed to share spreadsheet %s", fileID)
	}
	return nil
}

func googleError(err error, format string, args ...interface{}) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return apperr.New(apperr.KindNotFound, err, format, args...)
	}
	return apperr.New(apperr.KindUpstream, err, format, args...)
}

// toSpreadsheet converts a Document into a Sheets API create payload
func toSpreadsheet(doc *sheets.Document) *gsheets.Spreadsheet {
	rows := make([]*gsheets.RowData, len(doc.Rows))
	for i, row := range doc.Rows {
		values := make([]*gsheets.CellData, len(row))
		for j, cell := range row {
			values[j] = toCellData(cell)
		}
		rows[i] = &gsheets.RowData{Values: values}
	}

	columns := make([]*gsheets.DimensionProperties, len(doc.ColumnWidths))
	for i, w := range doc.ColumnWidths {
		columns[i] = &gsheets.DimensionProperties{PixelSize: int64(w)}
	}

	return &gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: doc.Title},
		Sheets: []*gsheets.Sheet{{
			Properties: &gsheets.SheetProperties{
				GridProperties: &gsheets.GridProperties{FrozenRowCount: int64(doc.FrozenRowCount)},
			},
			Data: []*gsheets.GridData{{
				RowData:        rows,
				ColumnMetadata: columns,
			}},
		}},
	}
}

func toCellData(cell sheets.Cell) *gsheets.CellData {
	text := cell.Text
	data := &gsheets.CellData{
		UserEnteredValue: &gsheets.ExtendedValue{StringValue: &text},
		UserEnteredFormat: &gsheets.CellFormat{
			WrapStrategy: wrapStrategy,
			// Bold false must be sent explicitly or the field is dropped
			TextFormat: &gsheets.TextFormat{Bold: cell.Bold, ForceSendFields: []string{"Bold"}},
		},
	}
	if cell.LinkURL != "" {
		data.TextFormatRuns = []*gsheets.TextFormatRun{{
			StartIndex: 0,
			Format:     &gsheets.TextFormat{Link: &gsheets.Link{Uri: cell.LinkURL}},
		}}
	}
	return data
}

// rawCells flattens the first sheet of a spreadsheet into displayed cell text
func rawCells(ss *gsheets.Spreadsheet) [][]string {
	if ss == nil || len(ss.Sheets) == 0 || len(ss.Sheets[0].Data) == 0 {
		return nil
	}

	rowData := ss.Sheets[0].Data[0].RowData
	cells := make([][]string, len(rowData))
	for i, row := range rowData {
		if row == nil {
			cells[i] = []string{}
			continue
		}
		values := make([]string, len(row.Values))
		for j, cell := range row.Values {
			if cell != nil {
				values[j] = cell.FormattedValue
			}
		}
		cells[i] = values
	}
	return cells
}
