// Package renderer renders portfolio views to markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	portfolio "github.com/etnz/portfolio-chart"
)

//go:embed *.md
var templates embed.FS

var funcs = template.FuncMap{
	"money": func(v decimal.Decimal, currency string) string { return portfolio.FormatMoney(v, currency) },
}

// RenderChart renders a Chart to a markdown string.
func RenderChart(c *Chart) string {
	partials := map[string]string{
		"chart_summary":  "chart_summary.md",
		"chart_holdings": "chart_holdings.md",
		"chart_bars":     "chart_bars.md",
	}
	if len(c.Holdings) == 0 {
		partials["chart_holdings"] = ""
	}
	return renderTemplate("chart", "chart.md", partials, c)
}

// RenderHoldings renders the Holdings struct to a markdown string.
func RenderHoldings(h *Holdings) string {
	partials := map[string]string{
		"holdings_table": "holdings_table.md",
	}
	return renderTemplate("holdings", "holdings.md", partials, h)
}

// RenderTransactions renders the Transactions struct to a markdown string.
func RenderTransactions(t *Transactions) string {
	return renderTemplate("transactions", "transactions.md", nil, t)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
