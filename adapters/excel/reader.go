package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pricesheet/domain/pricing"
	"pricesheet/internal"
	"pricesheet/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader loads price files and templates from Excel or CSV files
type DataReader struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewDataReader creates a new reader for the given configuration
func NewDataReader(config ExcelConfig) *DataReader {
	return &DataReader{
		config: config,
		logger: internal.DefaultLogger.Named("DataReader"),
	}
}

// detectFileType picks a parser from the file extension; anything that is
// not .csv is handed to excelize, which reports unsupported formats itself
func detectFileType(path string) fileType {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return fileTypeCSV
	}
	return fileTypeXLSX
}

// LoadTyped reads a price file using headerRow (0-based) as the header.
// Cells are kept as text, header names are trimmed, rows above the header
// and fully blank rows are ignored.
func (r *DataReader) LoadTyped(ctx context.Context, path string, headerRow int) (*pricing.Dataset, error) {
	if headerRow < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("header row must be >= 0, got %d", headerRow))
	}

	rows, err := r.readRows(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(rows) <= headerRow {
		return nil, errors.SchemaError(fmt.Sprintf("%s has %d rows, expected a header on row %d",
			filepath.Base(path), len(rows), headerRow+1))
	}

	headers := normalizeHeaders(rows[headerRow])
	if !containsHeader(headers, pricing.FieldCode) {
		return nil, errors.SchemaError(fmt.Sprintf("required column '%s' not found in header row %d of %s",
			pricing.FieldCode, headerRow+1, filepath.Base(path)))
	}

	var data []pricing.Row
	for _, cells := range rows[headerRow+1:] {
		if isBlank(cells) {
			continue
		}
		row := make(pricing.Row, len(headers))
		for j, header := range headers {
			if j < len(cells) {
				row[header] = cells[j]
			} else {
				row[header] = ""
			}
		}
		data = append(data, row)
	}

	r.logger.Debug("%s: %d columns, %d data rows after header row %d", filepath.Base(path), len(headers), len(data), headerRow+1)
	return pricing.NewDataset("", filepath.Base(path), headers, data), nil
}

// LoadRaw reads every row of the sheet with no header interpretation
func (r *DataReader) LoadRaw(ctx context.Context, path string) (pricing.TemplateGrid, error) {
	rows, err := r.readRows(ctx, path)
	if err != nil {
		return nil, err
	}
	return pricing.TemplateGrid(rows), nil
}

func (r *DataReader) readRows(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.InputMissing(fmt.Sprintf("file not found: %s", filepath.Base(path)))
	}

	switch detectFileType(path) {
	case fileTypeCSV:
		return r.readCSVRows(path)
	default:
		return r.readExcelRows(path)
	}
}

func (r *DataReader) readExcelRows(path string) ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to open %s as a spreadsheet", filepath.Base(path)), err)
	}
	defer f.Close()

	sheet := r.config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError(fmt.Sprintf("%s contains no sheets", filepath.Base(path)), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: r.config.RawValues})
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read sheet %q of %s", sheet, filepath.Base(path)), err)
	}

	r.logger.Debug("%s sheet %q read in %.2fms (%d rows)", filepath.Base(path), sheet,
		float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to open %s", filepath.Base(path)), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read CSV file %s", filepath.Base(path)), err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// normalizeHeaders trims names, labels blank headers "Unnamed: N" and
// suffixes repeated names with ".1", ".2", ...
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := counts[name]; n > 0 {
			counts[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			counts[name] = 1
		}
		headers[i] = name
	}
	return headers
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
