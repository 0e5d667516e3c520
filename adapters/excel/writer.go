package excel

import (
	"math"
	"strconv"

	"pricesheet/domain/pricing"
	"pricesheet/internal/errors"

	"github.com/xuri/excelize/v2"
)

const outputSheet = "Sheet1"

// WriteRaw serializes a grid into a new workbook, one sheet row per grid row,
// with no header row added
func (r *DataReader) WriteRaw(grid pricing.TemplateGrid) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range grid {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid row %d", i+1)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = r.cellValue(v)
		}
		if err := f.SetSheetRow(outputSheet, cell, &values); err != nil {
			return nil, errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize workbook")
	}
	r.logger.Debug("wrote %d rows (%d bytes)", len(grid), buf.Len())
	return buf.Bytes(), nil
}

// cellValue keeps text as text unless it is a number in canonical form, so
// codes like "007" survive the round trip
func (r *DataReader) cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if !r.config.TypedOutput {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != v {
		return v
	}
	return f
}
