package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptConfig controls receipt layout. Print calls receive it by value.
type ReceiptConfig struct {
	HeaderText string          `gorm:"size:255" json:"header_text"`
	FooterText string          `gorm:"size:255" json:"footer_text"`
	ShowQRCode bool            `gorm:"default:false" json:"show_qr_code"`
	QRCodeData *string         `gorm:"size:512" json:"qr_code_data,omitempty"`
	PrintWidth enum.PrintWidth `gorm:"size:8;default:'58mm'" json:"print_width"`
}

// DefaultReceiptConfig is applied when a caller supplies no configuration.
func DefaultReceiptConfig() ReceiptConfig {
	return ReceiptConfig{
		HeaderText: "Community Kitchen",
		FooterText: "Thank you! Please visit again",
		ShowQRCode: false,
		PrintWidth: enum.PrintWidth58mm,
	}
}

// QRPayload returns the QR data to print, if any.
func (c ReceiptConfig) QRPayload() (string, bool) {
	if !c.ShowQRCode || c.QRCodeData == nil || *c.QRCodeData == "" {
		return "", false
	}
	return *c.QRCodeData, true
}

// ReceiptSettings is the single persisted receipt configuration of a deployment.
type ReceiptSettings struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptConfig `gorm:"embedded"`
	UpdatedBy     *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating the settings row
func (s *ReceiptSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptSettings model
func (ReceiptSettings) TableName() string {
	return "receipt_settings"
}

// ReceiptLine is one item row of a receipt.
type ReceiptLine struct {
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt is the structured receipt document shared by the ESC/POS and the
// HTML renderers. It is composed at print time and never stored.
type Receipt struct {
	Header      string          `json:"header"`
	OrderNumber string          `json:"order_number"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Phone       string          `json:"phone,omitempty"`
	Items       []ReceiptLine   `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Footer      string          `json:"footer"`
	QRCodeData  string          `json:"qr_code_data,omitempty"`
	Width       enum.PrintWidth `json:"print_width"`
	Columns     int             `json:"columns"`
}

// CategoryReceipt is an order narrowed to the items of one category, with
// its own total and a suffixed order number. It is never persisted.
type CategoryReceipt struct {
	Order
	Category string `json:"category"`
}
