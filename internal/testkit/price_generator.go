package testkit

import (
	"fmt"
	"math/rand"
	"strconv"

	"pricesheet/domain/pricing"
)

// PriceListConfig configures the synthetic price list generator
type PriceListConfig struct {
	CodeCount     int     `json:"code_count"`
	ChangeRate    float64 `json:"change_rate"`
	DropRate      float64 `json:"drop_rate"`
	AddCount      int     `json:"add_count"`
	DuplicateRate float64 `json:"duplicate_rate"`
	HeaderRow     int     `json:"header_row"`
	Seed          int64   `json:"seed"`
}

// DefaultPriceListConfig returns a small catalogue laid out like a dealer sheet
func DefaultPriceListConfig() PriceListConfig {
	return PriceListConfig{
		CodeCount:     40,
		ChangeRate:    0.25,
		DropRate:      0.05,
		AddCount:      3,
		DuplicateRate: 0.05,
		HeaderRow:     11,
		Seed:          42,
	}
}

// PriceLists is one generated old/new pair plus a template seeded from the old side
type PriceLists struct {
	Old      [][]string
	New      [][]string
	Template [][]string
	// Changed lists codes whose prices or description were altered
	Changed []string
	// Dropped lists codes present only in Old
	Dropped []string
	// Added lists codes present only in New
	Added []string
}

// PriceListGenerator builds realistic-looking price lists deterministically
type PriceListGenerator struct {
	config PriceListConfig
	rng    *rand.Rand
}

// NewPriceListGenerator creates a generator seeded from config
func NewPriceListGenerator(config PriceListConfig) *PriceListGenerator {
	return &PriceListGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var trims = []string{"Base", "Sport", "Touring", "Limited", "Platinum"}
var options = []string{"Sunroof", "Tow Package", "Premium Audio", "Heated Seats", "Roof Rails", "Floor Mats"}

type priceRow struct {
	description string
	code        string
	wsd         string
	invoice     string
	retail      string
}

// Generate produces the old and new sheets and a template
func (g *PriceListGenerator) Generate() *PriceLists {
	out := &PriceLists{}

	var oldRows, newRows []priceRow
	for i := 0; i < g.config.CodeCount; i++ {
		r := g.randomRow(i)
		oldRows = append(oldRows, r)
		if g.rng.Float64() < g.config.DuplicateRate {
			oldRows = append(oldRows, r)
		}

		if g.rng.Float64() < g.config.DropRate {
			out.Dropped = append(out.Dropped, r.code)
			continue
		}
		if g.rng.Float64() < g.config.ChangeRate {
			r = g.mutate(r)
			out.Changed = append(out.Changed, r.code)
		}
		newRows = append(newRows, r)
	}
	for i := 0; i < g.config.AddCount; i++ {
		r := g.randomRow(g.config.CodeCount + i)
		newRows = append(newRows, r)
		out.Added = append(out.Added, r.code)
	}

	out.Old = g.sheet("Model Year 2025", oldRows)
	out.New = g.sheet("Model Year 2026", newRows)
	out.Template = g.template(oldRows)
	return out
}

func (g *PriceListGenerator) randomRow(i int) priceRow {
	code := fmt.Sprintf("%s%03d", string(rune('A'+i%26)), i+1)
	if g.rng.Intn(4) == 0 {
		// option lines are often included in the base price
		return priceRow{
			description: options[g.rng.Intn(len(options))],
			code:        code,
			wsd:         "std",
			invoice:     "std",
			retail:      "std",
		}
	}
	wsd := 20000 + g.rng.Intn(30000)
	return priceRow{
		description: trims[g.rng.Intn(len(trims))] + " " + strconv.Itoa(2+g.rng.Intn(3)) + "WD",
		code:        code,
		wsd:         strconv.Itoa(wsd),
		invoice:     strconv.Itoa(wsd + wsd/20),
		retail:      strconv.Itoa(wsd + wsd/8),
	}
}

func (g *PriceListGenerator) mutate(r priceRow) priceRow {
	switch g.rng.Intn(3) {
	case 0:
		r.description = r.description + " (revised)"
	case 1:
		r.wsd = bump(r.wsd, 250+g.rng.Intn(750))
	default:
		r.retail = bump(r.retail, 100+g.rng.Intn(900))
	}
	return r
}

// bump adds delta to a numeric price; "std" becomes a real price
func bump(value string, delta int) string {
	n, err := strconv.Atoi(value)
	if err != nil {
		return strconv.Itoa(delta)
	}
	return strconv.Itoa(n + delta)
}

func (g *PriceListGenerator) preamble(title string) [][]string {
	rows := make([][]string, 0, g.config.HeaderRow+1)
	for i := 0; i < g.config.HeaderRow; i++ {
		switch i {
		case 0:
			rows = append(rows, []string{"DEALER PRICE LIST"})
		case 1:
			rows = append(rows, []string{title})
		default:
			rows = append(rows, []string{})
		}
	}
	return rows
}

func (g *PriceListGenerator) sheet(title string, rows []priceRow) [][]string {
	out := g.preamble(title)
	out = append(out, []string{"Model", pricing.FieldDescription, pricing.FieldCode, pricing.FieldWSD, pricing.FieldDealerInvoice, pricing.FieldRetailPrice})
	for _, r := range rows {
		out = append(out, []string{"", r.description, r.code, r.wsd, r.invoice, r.retail})
	}
	return out
}

func (g *PriceListGenerator) template(rows []priceRow) [][]string {
	out := [][]string{
		{"ORDER GUIDE"},
		{"Model", "Description", "Code", "WSD", "Dealer Invoice", "Retail Price"},
		{pricing.DataMarker},
	}
	for _, r := range rows {
		out = append(out, []string{"", r.description, r.code, r.wsd, r.invoice, r.retail})
	}
	return out
}
