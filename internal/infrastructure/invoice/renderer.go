// Package invoice формирует HTML-счёт по заказу.
package invoice

import (
	"bytes"
	"embed"
	"html/template"
	"slices"
	"strings"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/shopspring/decimal"
)

//go:embed templates/invoice.html
var templatesFS embed.FS

type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("invoice.html").Funcs(template.FuncMap{
		"money":   formatMoney,
		"variant": formatVariant,
	}).ParseFS(templatesFS, "templates/invoice.html")
	if err != nil {
		return nil, e.Wrap("invoice.NewHTMLRenderer", err)
	}

	return &HTMLRenderer{tmpl: tmpl}, nil
}

type invoiceView struct {
	Order    *domain.Order
	Customer *domain.User
}

func (r *HTMLRenderer) Render(order *domain.Order, customer *domain.User) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, invoiceView{Order: order, Customer: customer}); err != nil {
		return nil, e.Wrap("HTMLRenderer.Render", err)
	}

	return buf.Bytes(), nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatVariant печатает выбор вариантов в стабильном порядке: "color: red, size: M".
func formatVariant(v domain.VariantSelection) string {
	if len(v) == 0 {
		return ""
	}

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}

	return strings.Join(parts, ", ")
}
