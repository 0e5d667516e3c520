// Package reconcile matches the rows of an old and a new price file by code
// and reports per-field differences.
//
// Rows sharing a code are paired by their position inside the code group,
// not by content. Downstream consumers rely on that alignment, so two
// distinct products under one code must appear in the same relative order in
// both files to line up.
package reconcile

import (
	"pricesheet/domain/pricing"
)

// CodeOrder returns the distinct codes of before in first-seen order followed
// by the codes that only occur in after, also in first-seen order. Rows with
// an empty code are skipped.
func CodeOrder(before, after *pricing.Dataset) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, ds := range []*pricing.Dataset{before, after} {
		if ds == nil {
			continue
		}
		for _, row := range ds.Rows {
			code := row.Code()
			if code == "" {
				continue
			}
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}

// groupByCode buckets rows by code, keeping dataset order inside each bucket,
// then drops duplicates per bucket. Keys are case-folded, so de-duplicating per
// code keeps "A1" and "a1" rows apart.
func groupByCode(ds *pricing.Dataset) map[string][]pricing.Row {
	groups := make(map[string][]pricing.Row)
	if ds == nil {
		return groups
	}
	for _, row := range ds.Rows {
		code := row.Code()
		if code == "" {
			continue
		}
		groups[code] = append(groups[code], row)
	}
	for code, rows := range groups {
		groups[code] = Dedupe(rows)
	}
	return groups
}

// Reconcile produces one DiffRecord per slot for every code in CodeOrder.
// It performs no I/O and returns the same sequence for the same inputs.
func Reconcile(before, after *pricing.Dataset) []pricing.DiffRecord {
	oldGroups := groupByCode(before)
	newGroups := groupByCode(after)

	var records []pricing.DiffRecord
	for _, code := range CodeOrder(before, after) {
		oldRows := oldGroups[code]
		newRows := newGroups[code]

		slots := len(oldRows)
		if len(newRows) > slots {
			slots = len(newRows)
		}
		for i := 0; i < slots; i++ {
			records = append(records, compareSlot(code, rowAt(oldRows, i), rowAt(newRows, i)))
		}
	}
	return records
}

// rowAt returns nil for a slot one side does not fill; nil reads as all blanks
func rowAt(rows []pricing.Row, i int) pricing.Row {
	if i < len(rows) {
		return rows[i]
	}
	return nil
}

func compareSlot(code string, oldRow, newRow pricing.Row) pricing.DiffRecord {
	rec := pricing.DiffRecord{
		DescriptionOld:   oldRow.Get(pricing.FieldDescription),
		DescriptionNew:   newRow.Get(pricing.FieldDescription),
		Code:             code,
		WSDOld:           oldRow.Get(pricing.FieldWSD),
		WSDNew:           newRow.Get(pricing.FieldWSD),
		DealerInvoiceOld: oldRow.Get(pricing.FieldDealerInvoice),
		DealerInvoiceNew: newRow.Get(pricing.FieldDealerInvoice),
		RetailPriceOld:   oldRow.Get(pricing.FieldRetailPrice),
		RetailPriceNew:   newRow.Get(pricing.FieldRetailPrice),
	}

	// Descriptions are compared verbatim; prices go through CleanValue.
	rec.DescriptionDifferent = rec.DescriptionOld != rec.DescriptionNew
	rec.WSDDifferent = CleanValue(rec.WSDOld) != CleanValue(rec.WSDNew)
	rec.InvoiceDifferent = CleanValue(rec.DealerInvoiceOld) != CleanValue(rec.DealerInvoiceNew)
	rec.PriceDifferent = CleanValue(rec.RetailPriceOld) != CleanValue(rec.RetailPriceNew)

	rec.Status = pricing.StatusNoChange
	if rec.Changed() {
		rec.Status = pricing.StatusChange
	}
	return rec
}
