package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/sangkips/kitchen-pos/pkg/printer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thaliOrder() *entity.Order {
	return &entity.Order{
		OrderNumber: "20261018-0001",
		CreatedAt:   time.Date(2026, 10, 18, 14, 15, 0, 0, time.UTC),
		Total:       decimal.NewFromInt(300),
		Items: []entity.OrderLineItem{
			{Name: "Veg Thali", ShortName: "Thali", Price: decimal.NewFromInt(150), Quantity: 2},
		},
	}
}

func TestReceiptFormatter_RenderSingleItem(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	cfg := &entity.ReceiptConfig{HeaderText: "H", FooterText: "F", PrintWidth: enum.PrintWidth58mm}

	out := f.Render(thaliOrder(), cfg)

	head := out
	if len(head) > 16 {
		head = head[:16]
	}
	assert.Contains(t, string(head), "H")
	assert.Contains(t, string(out), "2 x Thali")
	assert.Contains(t, string(out), "Rs.300.00")
	assert.Regexp(t, `TOTAL +Rs\.300\.00\n`, string(out))
	assert.True(t, bytes.HasSuffix(out, printer.CutCommand))
}

func TestReceiptFormatter_RenderIsDeterministic(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	cfg := entity.DefaultReceiptConfig()

	assert.Equal(t, f.Render(thaliOrder(), &cfg), f.Render(thaliOrder(), &cfg))
}

func TestReceiptFormatter_Build(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	order := thaliOrder()

	r := f.Build(order, nil)

	assert.Equal(t, "Community Kitchen", r.Header)
	assert.Equal(t, "18/10/2026", r.Date)
	assert.Equal(t, "07:45 PM", r.Time)
	assert.Equal(t, 32, r.Columns)
	assert.Empty(t, r.Phone)
	assert.Empty(t, r.QRCodeData)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "Thali", r.Items[0].Name)
	assert.True(t, r.Items[0].LineTotal.Equal(decimal.NewFromInt(300)))
}

func TestReceiptFormatter_PhoneRowOnlyWhenPresent(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	order := thaliOrder()

	assert.NotContains(t, string(f.Render(order, nil)), "Phone:")

	phone := "98450 12345"
	order.PhoneNumber = &phone
	assert.Contains(t, string(f.Render(order, nil)), "Phone:")
	assert.Contains(t, string(f.Render(order, nil)), phone)
}

func TestReceiptFormatter_QRCodeNeedsFlagAndData(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	data := "upi://pay?pa=kitchen@upi"
	qrStore := []byte{printer.GS, '(', 'k'}

	cfg := entity.DefaultReceiptConfig()
	cfg.QRCodeData = &data
	assert.NotContains(t, string(f.Render(thaliOrder(), &cfg)), string(qrStore))

	cfg.ShowQRCode = true
	out := f.Render(thaliOrder(), &cfg)
	assert.Contains(t, string(out), string(qrStore))
	assert.Contains(t, string(out), data)
}

func TestReceiptFormatter_WideProfile(t *testing.T) {
	f := NewReceiptFormatter(testLocation())
	cfg := entity.DefaultReceiptConfig()
	cfg.PrintWidth = enum.PrintWidth80mm

	r := f.Build(thaliOrder(), &cfg)
	assert.Equal(t, 48, r.Columns)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "Rs.12.50", FormatAmount(DeviceCurrency, decimal.RequireFromString("12.5")))
	assert.Equal(t, "₹0.00", FormatAmount(PreviewCurrency, decimal.Zero))
}

func TestLoadReceiptLocation(t *testing.T) {
	loc, err := LoadReceiptLocation("")
	require.NoError(t, err)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600+30*60, offset)

	_, err = LoadReceiptLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}
