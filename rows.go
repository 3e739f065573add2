package famgraph

import (
	"fmt"
	"strings"
)

// Row is one spreadsheet row as text, left to right.
type Row []string

// Record is a data row together with its 1-based line in the sheet.
type Record struct {
	Line  int
	Cells Row
}

// Name returns the first cell, or "" for an empty row.
func (r Record) Name() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0]
}

// Group is a run of contiguous data rows.
type Group []Record

// GroupOptions describes the boilerplate around the data rows of a sheet.
type GroupOptions struct {
	HeaderRows int // title rows dropped from the top
	FooterRows int // rows dropped from the bottom
	MinRows    int // sheets with fewer rows yield no groups
}

// DefaultGroupOptions matches the layout of the family sheet: two title rows,
// three footer rows and at least six rows in total.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{HeaderRows: 2, FooterRows: 3, MinRows: 6}
}

// Grouping is the result of GroupRows.
type Grouping struct {
	Groups       []Group
	Rows         int
	Insufficient bool
	MinRows      int
}

// Warning returns an InsufficientInput error when the sheet was too short to
// trim, nil otherwise. It is meant to be reported, not to abort.
func (g Grouping) Warning() error {
	if !g.Insufficient {
		return nil
	}
	return &Error{
		Kind:    KindInsufficientInput,
		Message: fmt.Sprintf("not enough rows to trim (need %d, got %d)", g.MinRows, g.Rows),
	}
}

// Records returns every record of every group in order.
func (g Grouping) Records() []Record {
	var records []Record
	for _, group := range g.Groups {
		records = append(records, group...)
	}
	return records
}

// GroupRows drops the header and footer rows and splits the rest into family
// groups on rows whose first cell is blank. Blank rows are discarded.
func GroupRows(rows []Row, opts GroupOptions) Grouping {
	result := Grouping{Rows: len(rows), MinRows: opts.MinRows}
	if len(rows) < opts.MinRows || len(rows) < opts.HeaderRows+opts.FooterRows {
		result.Insufficient = true
		return result
	}

	var current Group
	for i := opts.HeaderRows; i < len(rows)-opts.FooterRows; i++ {
		row := rows[i]
		if isSeparator(row) {
			if len(current) > 0 {
				result.Groups = append(result.Groups, current)
				current = nil
			}
			continue
		}
		current = append(current, Record{Line: i + 1, Cells: row})
	}
	if len(current) > 0 {
		result.Groups = append(result.Groups, current)
	}
	return result
}

func isSeparator(row Row) bool {
	return len(row) == 0 || strings.TrimSpace(row[0]) == ""
}
