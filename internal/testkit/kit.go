// Package testkit provides fixtures for exercising the comparison pipeline:
// workbook builders, a synthetic price list generator and an in-memory run
// repository.
package testkit

import (
	"context"
	"os"
	"sort"
	"sync"

	"pricesheet/internal/errors"
	"pricesheet/models"

	"github.com/xuri/excelize/v2"
)

// Workbook renders rows into the first sheet of a new xlsx workbook.
// Empty rows are left empty so the sheet keeps its layout.
func Workbook(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, errors.Wrap(err, "failed to write fixture row")
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize fixture workbook")
	}
	return buf.Bytes(), nil
}

// WriteWorkbook renders rows and saves them at path
func WriteWorkbook(path string, rows [][]string) error {
	data, err := Workbook(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// InMemoryRunRepository implements RunRepository without a database
type InMemoryRunRepository struct {
	runs []*models.ComparisonRun
	mu   sync.RWMutex
}

// NewInMemoryRunRepository creates an empty repository
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{}
}

// Record stores a copy of run
func (r *InMemoryRunRepository) Record(ctx context.Context, run *models.ComparisonRun) error {
	if run == nil {
		return errors.InvalidInput("run is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *run
	r.runs = append(r.runs, &stored)
	return nil
}

// ListRecent returns runs newest first
func (r *InMemoryRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ComparisonRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.ComparisonRun, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		out = append(out, r.runs[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of recorded runs
func (r *InMemoryRunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
