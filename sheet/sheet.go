// Package sheet reads the rows of a family sheet as text.
//
// Supported formats are .xlsx, the legacy binary .xls and .csv. Rows are
// padded to the width of the widest row so that every row of a sheet has the
// same number of cells, as they do in the spreadsheet itself.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"famgraph"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are not .xlsx, .xls or .csv.
var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// Read returns the rows of the named worksheet. The worksheet name is ignored
// for CSV files. An empty name selects the first worksheet.
func Read(path, worksheet string) ([]famgraph.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, worksheet)
	case ".xls":
		return readXLS(path, worksheet)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func readXLSX(path, worksheet string) ([]famgraph.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if worksheet == "" {
		worksheet = f.GetSheetName(0)
	}
	raw, err := f.GetRows(worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", worksheet, err)
	}

	rows := make([]famgraph.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, famgraph.Row(r))
	}
	return pad(rows), nil
}

func readXLS(path, worksheet string) ([]famgraph.Row, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s != nil && (worksheet == "" || s.Name == worksheet) {
			ws = s
			break
		}
	}
	if ws == nil {
		return nil, fmt.Errorf("worksheet %q not found in %s", worksheet, path)
	}

	rows := make([]famgraph.Row, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		r := ws.Row(i)
		if r == nil {
			rows = append(rows, famgraph.Row{})
			continue
		}
		cells := make(famgraph.Row, 0, r.LastCol())
		for j := 0; j < r.LastCol(); j++ {
			cells = append(cells, r.Col(j))
		}
		rows = append(rows, cells)
	}
	return pad(rows), nil
}

// ReadCSV reads comma separated rows. Rows may have different lengths.
func ReadCSV(r io.Reader) ([]famgraph.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var rows []famgraph.Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, famgraph.Row(record))
	}
	return pad(rows), nil
}

// pad extends every row with empty cells up to the widest row.
func pad(rows []famgraph.Row) []famgraph.Row {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make(famgraph.Row, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}
