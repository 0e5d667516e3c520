package ports

import (
	"context"

	"pricesheet/domain/pricing"
)

// TabularReader loads spreadsheets into in-memory structures
type TabularReader interface {
	// LoadTyped parses a price file, treating headerRow (0-based) as the header
	LoadTyped(ctx context.Context, path string, headerRow int) (*pricing.Dataset, error)
	// LoadRaw parses a sheet with no header interpretation
	LoadRaw(ctx context.Context, path string) (pricing.TemplateGrid, error)
}

// TabularWriter serializes a raw grid back into spreadsheet bytes
type TabularWriter interface {
	WriteRaw(grid pricing.TemplateGrid) ([]byte, error)
}

// TabularIO is the full spreadsheet collaborator
type TabularIO interface {
	TabularReader
	TabularWriter
}
