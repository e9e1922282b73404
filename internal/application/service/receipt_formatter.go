package service

import (
	"fmt"
	"time"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/pkg/printer"
	"github.com/shopspring/decimal"
)

// Currency prefixes. Printers get plain ASCII; the preview may use the rupee sign.
const (
	DeviceCurrency  = "Rs."
	PreviewCurrency = "₹"
)

// Receipt date and time layouts (en-IN: 18/10/2026, 07:45 PM).
const (
	ReceiptDateLayout = "02/01/2006"
	ReceiptTimeLayout = "03:04 PM"
)

const defaultReceiptZone = "Asia/Kolkata"

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// LoadReceiptLocation resolves the time zone receipts are printed in.
// Asia/Kolkata has no DST, so a fixed +05:30 zone stands in when the zone
// database is missing.
func LoadReceiptLocation(name string) (*time.Location, error) {
	if name == "" {
		name = defaultReceiptZone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == defaultReceiptZone {
		return time.FixedZone("IST", 5*60*60+30*60), nil
	}
	return nil, fmt.Errorf("load receipt time zone %q: %w", name, err)
}

// ReceiptFormatter turns orders into receipt documents and ESC/POS bytes.
// It reads no clock: every timestamp comes from the order.
type ReceiptFormatter struct {
	loc *time.Location
}

// NewReceiptFormatter creates a formatter printing times in loc.
func NewReceiptFormatter(loc *time.Location) *ReceiptFormatter {
	if loc == nil {
		loc, _ = LoadReceiptLocation(defaultReceiptZone)
	}
	return &ReceiptFormatter{loc: loc}
}

// Build lays out the receipt document. A nil cfg applies
// entity.DefaultReceiptConfig. The width must be a known profile; callers
// validate it.
func (f *ReceiptFormatter) Build(order *entity.Order, cfg *entity.ReceiptConfig) *entity.Receipt {
	c := entity.DefaultReceiptConfig()
	if cfg != nil {
		c = *cfg
	}
	profile, _ := c.PrintWidth.Profile()

	created := order.CreatedAt.In(f.loc)
	r := &entity.Receipt{
		Header:      c.HeaderText,
		OrderNumber: order.OrderNumber,
		Date:        created.Format(ReceiptDateLayout),
		Time:        created.Format(ReceiptTimeLayout),
		Total:       order.Total,
		Footer:      c.FooterText,
		Width:       c.PrintWidth,
		Columns:     profile.Columns,
		Items:       make([]entity.ReceiptLine, 0, len(order.Items)),
	}
	if order.HasPhone() {
		r.Phone = *order.PhoneNumber
	}
	if qr, ok := c.QRPayload(); ok {
		r.QRCodeData = qr
	}
	for _, it := range order.Items {
		r.Items = append(r.Items, entity.ReceiptLine{
			Quantity:  it.Quantity,
			Name:      it.DisplayName(),
			UnitPrice: it.Price,
			LineTotal: it.LineTotal(),
		})
	}
	return r
}

// Render builds the receipt and encodes it for the printer.
func (f *ReceiptFormatter) Render(order *entity.Order, cfg *entity.ReceiptConfig) []byte {
	return EncodeReceipt(f.Build(order, cfg))
}

// EncodeReceipt converts a receipt document into ESC/POS bytes.
func EncodeReceipt(r *entity.Receipt) []byte {
	doc := printer.NewDocument(r.Columns)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetFontSize(printer.FontTall).
		Text(r.Header).
		SetFontSize(printer.FontNormal).
		SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Order No:", r.OrderNumber).
		KeyValue("Date:", r.Date).
		KeyValue("Time:", r.Time)
	if r.Phone != "" {
		doc.KeyValue("Phone:", r.Phone)
	}

	// Items
	doc.SetBold(true).
		Text("Items").
		SetBold(false)
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, FormatAmount(DeviceCurrency, item.LineTotal))
		doc.TextF("  @ %s each", FormatAmount(DeviceCurrency, item.UnitPrice))
	}

	doc.Separator('-').
		SetBold(true).
		KeyValue("TOTAL", FormatAmount(DeviceCurrency, r.Total)).
		SetBold(false).
		LineFeed()

	// Footer
	doc.SetAlign(printer.AlignCenter)
	if r.Footer != "" {
		doc.Text(r.Footer)
	}
	if r.QRCodeData != "" {
		doc.LineFeed().QRCode(r.QRCodeData, 6)
	}
	doc.SetAlign(printer.AlignLeft).
		FeedLines(3).
		Cut()

	return doc.Bytes()
}
