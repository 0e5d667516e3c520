package pricing

import (
	"encoding/json"
	"strings"
)

// Tracked field names as they appear in the header row of a price file
const (
	FieldDescription   = "Description"
	FieldCode          = "Code"
	FieldWSD           = "WSD"
	FieldDealerInvoice = "Dealer Invoice"
	FieldRetailPrice   = "Retail Price"
)

// TrackedFields lists the fields that make up a RowKey, in key order
var TrackedFields = []string{
	FieldDescription,
	FieldCode,
	FieldWSD,
	FieldDealerInvoice,
	FieldRetailPrice,
}

// Origin identifies which side of a comparison a dataset came from
type Origin string

const (
	OriginOld Origin = "File1"
	OriginNew Origin = "File2"
)

// Row maps a header name to its raw cell text
type Row map[string]string

// Get returns the raw value for field, or "" when the row does not carry it
func (r Row) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Code returns the trimmed join key of the row
func (r Row) Code() string {
	return strings.TrimSpace(r.Get(FieldCode))
}

// Dataset is the ordered content of one price file
type Dataset struct {
	Origin  Origin
	Source  string
	Headers []string
	Rows    []Row
}

// NewDataset creates a dataset for the given side
func NewDataset(origin Origin, source string, headers []string, rows []Row) *Dataset {
	return &Dataset{
		Origin:  origin,
		Source:  source,
		Headers: headers,
		Rows:    rows,
	}
}

// Len returns the number of rows, tolerating a nil dataset
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// RowKey is the normalized identity of a row inside a single dataset.
// It is never used to match rows across datasets.
type RowKey [5]string

// Status is the overall verdict for a DiffRecord
type Status string

const (
	StatusChange   Status = "CHANGE"
	StatusNoChange Status = "NO CHANGE"
)

// DiffRecord is one reconciled slot for a code. JSON names follow the
// wire format the browser client already consumes.
type DiffRecord struct {
	DescriptionOld   string `json:"Description_File1"`
	DescriptionNew   string `json:"Description_File2"`
	Code             string `json:"Code"`
	WSDOld           string `json:"WSD_Price_File1"`
	WSDNew           string `json:"WSD_Price_File2"`
	DealerInvoiceOld string `json:"Dealer_Invoice_File1"`
	DealerInvoiceNew string `json:"Dealer_Invoice_File2"`
	RetailPriceOld   string `json:"Retail_Price_File1"`
	RetailPriceNew   string `json:"Retail_Price_File2"`

	DescriptionDifferent bool `json:"Description_Different"`
	// CodeDifferent is always false; rows are paired by code. Kept for clients reading the field.
	CodeDifferent        bool `json:"Code_Different"`
	WSDDifferent         bool `json:"WSD_Different"`
	InvoiceDifferent     bool `json:"Invoice_Different"`
	PriceDifferent       bool `json:"Price_Different"`

	Status Status `json:"Status"`
}

// Changed reports whether any tracked field differs
func (d DiffRecord) Changed() bool {
	return d.DescriptionDifferent || d.WSDDifferent || d.InvoiceDifferent || d.PriceDifferent
}

// UpdateItem converts the record into the projector's input shape
func (d DiffRecord) UpdateItem() UpdateItem {
	return UpdateItem{
		Code:          d.Code,
		Description:   d.DescriptionNew,
		WSD:           d.WSDNew,
		DealerInvoice: d.DealerInvoiceNew,
		RetailPrice:   d.RetailPriceNew,
	}
}

// UpdateItem carries the new-side values to write into a template for one code
type UpdateItem struct {
	Code          string `json:"Code"`
	Description   string `json:"Description_File2"`
	WSD           string `json:"WSD_Price_File2"`
	DealerInvoice string `json:"Dealer_Invoice_File2"`
	RetailPrice   string `json:"Retail_Price_File2"`
}

// UpdateItemKeys are the JSON fields every update item must carry. An absent
// field would otherwise decode to "" and blank the template cell.
var UpdateItemKeys = []string{"Code", "Description_File2", "WSD_Price_File2", "Dealer_Invoice_File2", "Retail_Price_File2"}

// MissingUpdateKey returns the first of UpdateItemKeys absent from a decoded
// item, or "" when all are present
func MissingUpdateKey(item map[string]json.RawMessage) string {
	for _, key := range UpdateItemKeys {
		if _, ok := item[key]; !ok {
			return key
		}
	}
	return ""
}

// UpdateItems converts a slice of records, keeping order
func UpdateItems(records []DiffRecord) []UpdateItem {
	items := make([]UpdateItem, 0, len(records))
	for _, r := range records {
		items = append(items, r.UpdateItem())
	}
	return items
}

// Summary aggregates a comparison result
type Summary struct {
	Records          int `json:"records"`
	Changed          int `json:"changed"`
	Unchanged        int `json:"unchanged"`
	Codes            int `json:"codes"`
	CodesOnlyInOld   int `json:"codes_only_in_old"`
	CodesOnlyInNew   int `json:"codes_only_in_new"`
	DescriptionDiffs int `json:"description_diffs"`
	WSDDiffs         int `json:"wsd_diffs"`
	InvoiceDiffs     int `json:"invoice_diffs"`
	PriceDiffs       int `json:"price_diffs"`
}
