// Package projector writes selected price changes back into a template sheet
// without disturbing the rows around them.
package projector

import (
	"fmt"
	"strings"

	"pricesheet/domain/pricing"
	"pricesheet/internal/errors"
)

// Result is the updated grid plus how many rows were rewritten
type Result struct {
	Grid        pricing.TemplateGrid
	DataStart   int
	RowsUpdated int
	CodesHit    int
}

// LocateDataRegion returns the index of the first data row, i.e. the row
// right after the first "BASE VEHICLE" marker.
func LocateDataRegion(grid pricing.TemplateGrid) (int, error) {
	for i := range grid {
		if strings.TrimSpace(grid.Cell(i, pricing.ColMarker)) == pricing.DataMarker {
			return i + 1, nil
		}
	}
	return 0, errors.SchemaError(fmt.Sprintf("could not find '%s' in column A of the template", pricing.DataMarker))
}

// ValidateUpdates rejects the whole batch when any item lacks a code
func ValidateUpdates(items []pricing.UpdateItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Code) == "" {
			return errors.ValidationError(fmt.Sprintf("update %d has no Code", i))
		}
	}
	return nil
}

// ApplyUpdates overwrites Description, WSD, Dealer Invoice and Retail Price on
// every data row whose Code cell equals an item's code. The input grid is not
// modified; the returned grid has the same number of rows.
func ApplyUpdates(grid pricing.TemplateGrid, items []pricing.UpdateItem) (*Result, error) {
	if err := ValidateUpdates(items); err != nil {
		return nil, err
	}
	start, err := LocateDataRegion(grid)
	if err != nil {
		return nil, err
	}

	out := grid.Clone()
	res := &Result{Grid: out, DataStart: start}
	touched := make(map[int]struct{})

	for _, item := range items {
		hit := false
		for r := start; r < len(out); r++ {
			if out.Cell(r, pricing.ColCode) != item.Code {
				continue
			}
			writeRow(out, r, item)
			touched[r] = struct{}{}
			hit = true
		}
		if hit {
			res.CodesHit++
		}
	}

	res.RowsUpdated = len(touched)
	return res, nil
}

func writeRow(grid pricing.TemplateGrid, r int, item pricing.UpdateItem) {
	if len(grid[r]) <= pricing.ColRetailPrice {
		widened := make([]string, pricing.ColRetailPrice+1)
		copy(widened, grid[r])
		grid[r] = widened
	}
	grid[r][pricing.ColDescription] = item.Description
	grid[r][pricing.ColWSD] = item.WSD
	grid[r][pricing.ColDealerInvoice] = item.DealerInvoice
	grid[r][pricing.ColRetailPrice] = item.RetailPrice
}
