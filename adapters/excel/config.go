package excel

// DefaultHeaderRow is the 0-based header row of the transit price files (row 12 in Excel)
const DefaultHeaderRow = 11

// ExcelConfig holds configuration for spreadsheet reading and writing
type ExcelConfig struct {
	SheetName   string `json:"sheet_name"`   // empty means the first sheet
	HeaderRow   int    `json:"header_row"`   // 0-based
	RawValues   bool   `json:"raw_values"`   // read stored values instead of number-formatted text
	TypedOutput bool   `json:"typed_output"` // write canonical numbers as numeric cells
}

// DefaultExcelConfig returns sensible defaults for price file processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		HeaderRow:   DefaultHeaderRow,
		RawValues:   true,
		TypedOutput: true,
	}
}
