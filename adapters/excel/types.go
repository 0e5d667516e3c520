package excel

// fileType is the parser selected for a path
type fileType string

const (
	fileTypeXLSX fileType = "xlsx"
	fileTypeCSV  fileType = "csv"
)
