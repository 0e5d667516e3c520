package pricing

// Template column positions (0-indexed)
const (
	ColMarker        = 0
	ColDescription   = 1
	ColCode          = 2
	ColWSD           = 3
	ColDealerInvoice = 4
	ColRetailPrice   = 5
)

// DataMarker labels the row directly above the first vehicle-code data row
const DataMarker = "BASE VEHICLE"

const (
	// ResultFilename is the download name of an updated template
	ResultFilename = "updated_template.xlsx"
	// WorkbookContentType is the MIME type of produced workbooks
	WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TemplateGrid is a header-less sheet read cell by cell. Rows may be ragged.
type TemplateGrid [][]string

// Cell returns the value at (row, col), or "" when out of range
func (g TemplateGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Clone returns a deep copy so callers can mutate without aliasing the input
func (g TemplateGrid) Clone() TemplateGrid {
	if g == nil {
		return nil
	}
	out := make(TemplateGrid, len(g))
	for i, row := range g {
		if row == nil {
			continue
		}
		out[i] = make([]string, len(row))
		copy(out[i], row)
	}
	return out
}
