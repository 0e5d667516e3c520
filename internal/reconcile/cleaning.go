package reconcile

import (
	"strings"

	"pricesheet/domain/pricing"
)

// zeroTokens are the spellings price sheets use for "no price"
var zeroTokens = map[string]struct{}{
	"nan": {},
	"std": {},
	"n/c": {},
	"0":   {},
	"":    {},
	"-":   {},
}

// CleanValue normalizes a price cell for comparison only. Every zero-like
// token collapses to "0"; anything else is returned trimmed.
func CleanValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if _, ok := zeroTokens[strings.ToLower(trimmed)]; ok {
		return "0"
	}
	return trimmed
}

// KeyOf builds the de-duplication key for a row
func KeyOf(row pricing.Row) pricing.RowKey {
	var key pricing.RowKey
	for i, field := range pricing.TrackedFields {
		key[i] = strings.ToLower(strings.TrimSpace(row.Get(field)))
	}
	return key
}

// Dedupe keeps the first occurrence of every RowKey, preserving order
func Dedupe(rows []pricing.Row) []pricing.Row {
	seen := make(map[pricing.RowKey]struct{}, len(rows))
	unique := make([]pricing.Row, 0, len(rows))
	for _, row := range rows {
		key := KeyOf(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, row)
	}
	return unique
}
