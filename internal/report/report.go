// Package report renders a comparison as Markdown or as a standalone HTML page.
package report

import (
	"fmt"
	"strings"
	"time"

	"pricesheet/domain/pricing"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects the report output
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown"/"md" and "html"; anything else is an error
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Input is everything a report shows
type Input struct {
	OldName     string
	NewName     string
	Records     []pricing.DiffRecord
	Summary     pricing.Summary
	OnlyChanges bool
	GeneratedAt time.Time
}

// Markdown renders the report as GitHub-flavoured Markdown
func Markdown(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Price comparison\n\n")
	fmt.Fprintf(&b, "- Old file: `%s`\n", in.OldName)
	fmt.Fprintf(&b, "- New file: `%s`\n", in.NewName)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", in.GeneratedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Metric | Count |\n|---|---:|\n")
	s := in.Summary
	for _, m := range []struct {
		label string
		value int
	}{
		{"Rows compared", s.Records},
		{"Changed", s.Changed},
		{"Unchanged", s.Unchanged},
		{"Codes", s.Codes},
		{"Codes only in old file", s.CodesOnlyInOld},
		{"Codes only in new file", s.CodesOnlyInNew},
		{"Description changes", s.DescriptionDiffs},
		{"WSD changes", s.WSDDiffs},
		{"Dealer Invoice changes", s.InvoiceDiffs},
		{"Retail Price changes", s.PriceDiffs},
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", m.label, m.value)
	}

	b.WriteString("\n## Rows\n\n")
	rows := in.Records
	if in.OnlyChanges {
		rows = rows[:0:0]
		for _, r := range in.Records {
			if r.Status == pricing.StatusChange {
				rows = append(rows, r)
			}
		}
	}
	if len(rows) == 0 {
		b.WriteString("_No rows to show._\n")
		return b.String()
	}

	b.WriteString("| Code | Status | Description | WSD | Dealer Invoice | Retail Price |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			escape(r.Code),
			r.Status,
			cell(r.DescriptionOld, r.DescriptionNew, r.DescriptionDifferent),
			cell(r.WSDOld, r.WSDNew, r.WSDDifferent),
			cell(r.DealerInvoiceOld, r.DealerInvoiceNew, r.InvoiceDifferent),
			cell(r.RetailPriceOld, r.RetailPriceNew, r.PriceDifferent),
		)
	}
	return b.String()
}

// HTML renders the Markdown report into a complete HTML page
func HTML(in Input) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Price comparison",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(Markdown(in)), p, renderer)
}

// Render dispatches on format
func Render(in Input, format Format) []byte {
	if format == FormatHTML {
		return HTML(in)
	}
	return []byte(Markdown(in))
}

// cell shows "old → new" in bold when the field changed
func cell(oldValue, newValue string, changed bool) string {
	if !changed {
		return escape(newValue)
	}
	return fmt.Sprintf("**%s → %s**", orDash(oldValue), orDash(newValue))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "–"
	}
	return escape(s)
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "\n", " ", "\r", "")

func escape(s string) string {
	return mdEscaper.Replace(s)
}
