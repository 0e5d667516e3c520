package reconcile

import (
	"pricesheet/domain/pricing"
)

// Summarize counts changes across records and codes present on one side only
func Summarize(records []pricing.DiffRecord, before, after *pricing.Dataset) pricing.Summary {
	s := pricing.Summary{Records: len(records)}
	for _, rec := range records {
		if rec.Status == pricing.StatusChange {
			s.Changed++
		} else {
			s.Unchanged++
		}
		if rec.DescriptionDifferent {
			s.DescriptionDiffs++
		}
		if rec.WSDDifferent {
			s.WSDDiffs++
		}
		if rec.InvoiceDifferent {
			s.InvoiceDiffs++
		}
		if rec.PriceDifferent {
			s.PriceDiffs++
		}
	}

	oldCodes := codeSet(before)
	newCodes := codeSet(after)
	s.Codes = len(CodeOrder(before, after))
	for code := range oldCodes {
		if _, ok := newCodes[code]; !ok {
			s.CodesOnlyInOld++
		}
	}
	for code := range newCodes {
		if _, ok := oldCodes[code]; !ok {
			s.CodesOnlyInNew++
		}
	}
	return s
}

// Filter returns only CHANGE records when onlyChanges is set, otherwise all of them
func Filter(records []pricing.DiffRecord, onlyChanges bool) []pricing.DiffRecord {
	if !onlyChanges {
		return records
	}
	out := make([]pricing.DiffRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == pricing.StatusChange {
			out = append(out, rec)
		}
	}
	return out
}

func codeSet(ds *pricing.Dataset) map[string]struct{} {
	set := make(map[string]struct{})
	if ds == nil {
		return set
	}
	for _, row := range ds.Rows {
		if code := row.Code(); code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}
