package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"attenddash/internal/backend"
	"attenddash/internal/session"
	"attenddash/internal/view"
)

// ErrNotLoggedIn blocks an export before any request leaves the client.
var ErrNotLoggedIn = errors.New("not logged in")

var columns = []string{"#", "Name", "ID", "Time", "Status"}

// Exporter materializes the current record set as a downloadable file. Every
// export is a single one-shot backend request; a failure surfaces once and is
// never retried.
type Exporter struct {
	Backend   *backend.Client
	Store     session.Store
	SessionID string
}

// CSV downloads the backend's file-form report as-is. The credential check
// runs first: with nothing stored, no request is issued.
func (e *Exporter) CSV(ctx context.Context) ([]byte, error) {
	cred, err := e.credential(ctx)
	if err != nil {
		return nil, err
	}
	data, _, err := e.Backend.DownloadReport(ctx, cred.Token)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// XLSX fetches the record set once and builds a workbook locally.
func (e *Exporter) XLSX(ctx context.Context) ([]byte, error) {
	cred, err := e.credential(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.Backend.ListRecords(ctx, cred.Token)
	if err != nil {
		return nil, err
	}
	return WriteXLSX(view.Build(records))
}

func (e *Exporter) credential(ctx context.Context) (backend.Credential, error) {
	cred, ok, err := e.Store.Read(ctx, e.SessionID)
	if err != nil {
		return backend.Credential{}, err
	}
	if !ok {
		return backend.Credential{}, ErrNotLoggedIn
	}
	return cred, nil
}

// WriteCSV writes a rendered table as CSV rows. Used by the terminal client
// when exporting without going through the backend's report endpoint.
func WriteCSV(w io.Writer, t view.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, row := range t.Visible() {
		if err := cw.Write([]string{
			fmt.Sprint(row.Index), row.Name, row.ID, row.Time, row.Status,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX builds a single-sheet workbook from a rendered table.
func WriteXLSX(t view.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for i, row := range t.Visible() {
		values := []any{row.Index, row.Name, row.ID, row.Time, row.Status}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
