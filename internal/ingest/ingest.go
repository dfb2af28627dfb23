// ABOUTME: Parses uploaded .xlsx measurement exports into time/DoDH series
// ABOUTME: Validates required columns and drops rows with missing values

package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Column headers the upload must carry, matching the instrument export.
const (
	TimeColumn = "Time on stream (h)"
	DoDHColumn = "DoDH(%)"
)

// Parse errors. Both mean the upload itself is unusable; nothing downstream
// runs when Parse fails.
var (
	ErrBadWorkbook   = errors.New("unreadable workbook")
	ErrMissingColumn = errors.New("required column missing")
)

// Series holds the two measurement columns in sheet row order.
// Both slices always have the same length.
type Series struct {
	Time []float64 // hours on stream
	DoDH []float64 // percent
}

// Len returns the number of retained samples.
func (s *Series) Len() int {
	return len(s.Time)
}

// Parse reads an .xlsx byte stream and extracts the time and DoDH columns
// from the first sheet. Rows where either cell is empty or not a number are
// dropped; other columns are ignored. Column headers must match exactly.
func Parse(r io.Reader) (*Series, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrBadWorkbook)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		// No header row means no required columns either
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TimeColumn)
	}

	timeIdx, dodhIdx := -1, -1
	for i, name := range rows[0] {
		switch name {
		case TimeColumn:
			timeIdx = i
		case DoDHColumn:
			dodhIdx = i
		}
	}
	if timeIdx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TimeColumn)
	}
	if dodhIdx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, DoDHColumn)
	}

	series := &Series{}
	for _, row := range rows[1:] {
		timeCell := cellAt(row, timeIdx)
		dodhCell := cellAt(row, dodhIdx)
		if timeCell == "" || dodhCell == "" {
			continue
		}
		timeVal, errT := strconv.ParseFloat(timeCell, 64)
		dodhVal, errD := strconv.ParseFloat(dodhCell, 64)
		if errT != nil || errD != nil {
			// Non-numeric cells count as missing
			continue
		}
		series.Time = append(series.Time, timeVal)
		series.DoDH = append(series.DoDH, dodhVal)
	}

	return series, nil
}

// cellAt returns the cell value at idx, or "" when the row is shorter.
// GetRows trims trailing empty cells, so short rows are routine.
func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
