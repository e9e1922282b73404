package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/pkg/printer"
)

const receiptPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: {{.WidthMM}}mm auto; margin: 0; }
  body { width: {{.WidthPx}}px; margin: 0; padding: 4px; font-family: monospace; font-size: 12px; }
  .center { text-align: center; }
  .header { font-size: 16px; font-weight: bold; }
  .row { display: flex; justify-content: space-between; }
  .each { padding-left: 12px; font-size: 11px; }
  .label { font-weight: bold; margin-top: 4px; }
  .total { font-weight: bold; border-top: 1px dashed #000; padding-top: 4px; }
  hr { border: none; border-top: 1px dashed #000; }
</style>
</head>
<body>
<div class="center header">{{.R.Header}}</div>
<hr>
<div class="row"><span>Order No:</span><span>{{.R.OrderNumber}}</span></div>
<div class="row"><span>Date:</span><span>{{.R.Date}}</span></div>
<div class="row"><span>Time:</span><span>{{.R.Time}}</span></div>
{{- if .R.Phone}}
<div class="row"><span>Phone:</span><span>{{.R.Phone}}</span></div>
{{- end}}
<div class="label">Items</div>
{{- range .Lines}}
<div class="row"><span>{{.Quantity}} x {{.Name}}</span><span>{{.LineTotal}}</span></div>
<div class="each">@ {{.UnitPrice}} each</div>
{{- end}}
<div class="row total"><span>TOTAL</span><span>{{.Total}}</span></div>
<br>
<div class="center">{{.R.Footer}}</div>
{{- if .AutoPrint}}
<script>
  window.addEventListener('afterprint', function () { setTimeout(function () { window.close(); }, 500); });
  window.addEventListener('load', function () { window.print(); });
</script>
{{- end}}
</body>
</html>
`

var receiptPage = template.Must(template.New("receipt").Parse(receiptPageTemplate))

type pageLine struct {
	Quantity  int
	Name      string
	UnitPrice string
	LineTotal string
}

type pageData struct {
	Title     string
	WidthPx   int
	WidthMM   int
	R         *entity.Receipt
	Lines     []pageLine
	Total     string
	AutoPrint bool
}

// FallbackDocument is a receipt prepared for the print dialog path.
type FallbackDocument struct {
	Receipt *entity.Receipt `json:"receipt"`
	Page    printer.Page    `json:"-"`
}

// FallbackRenderer renders receipts as self-printing HTML pages.
type FallbackRenderer struct {
	formatter *ReceiptFormatter
	newID     func() string
}

// NewFallbackRenderer creates a renderer sharing the formatter's layout rules.
func NewFallbackRenderer(formatter *ReceiptFormatter) *FallbackRenderer {
	return &FallbackRenderer{
		formatter: formatter,
		newID:     func() string { return uuid.NewString() },
	}
}

// Render lays out the order and produces the printable page, sized to the
// paper width in CSS pixels.
func (r *FallbackRenderer) Render(order *entity.Order, cfg *entity.ReceiptConfig) (*FallbackDocument, error) {
	receipt := r.formatter.Build(order, cfg)
	profile, ok := receipt.Width.Profile()
	if !ok {
		return nil, fmt.Errorf("unknown print width %q", receipt.Width)
	}

	data := pageData{
		Title:   "Receipt " + receipt.OrderNumber,
		WidthPx: profile.CSSPx,
		WidthMM: profile.MM,
		R:       receipt,
		Total:   FormatAmount(PreviewCurrency, receipt.Total),
	}
	for _, it := range receipt.Items {
		data.Lines = append(data.Lines, pageLine{
			Quantity:  it.Quantity,
			Name:      it.Name,
			UnitPrice: FormatAmount(PreviewCurrency, it.UnitPrice),
			LineTotal: FormatAmount(PreviewCurrency, it.LineTotal),
		})
	}

	static, err := executePage(data)
	if err != nil {
		return nil, err
	}
	data.AutoPrint = true
	auto, err := executePage(data)
	if err != nil {
		return nil, err
	}

	return &FallbackDocument{
		Receipt: receipt,
		Page: printer.Page{
			ID:         r.newID(),
			Title:      data.Title,
			HTML:       auto,
			StaticHTML: static,
			WidthPx:    profile.CSSPx,
			WidthMM:    profile.MM,
		},
	}, nil
}

func executePage(data pageData) (string, error) {
	var buf bytes.Buffer
	if err := receiptPage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render receipt page: %w", err)
	}
	return buf.String(), nil
}
