package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a completed sale. Once created it is only read by the printing
// code; Total is fixed at creation and never recomputed.
type Order struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	OrderNumber string           `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	Total       decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"total"`
	PhoneNumber *string          `gorm:"size:20" json:"phone_number,omitempty"`
	Status      enum.OrderStatus `gorm:"default:0" json:"status"`
	CreatedBy   uuid.UUID        `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ItemsTotal sums price x quantity over the order's items.
func (o *Order) ItemsTotal() decimal.Decimal {
	return SumLineTotals(o.Items)
}

// HasPhone reports whether a customer phone number was captured.
func (o *Order) HasPhone() bool {
	return o.PhoneNumber != nil && *o.PhoneNumber != ""
}

// OrderLineItem is one row of an order.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"-"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position  int             `gorm:"not null;default:0" json:"-"`
	ItemID    uuid.UUID       `gorm:"type:uuid;index" json:"item_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	ShortName string          `gorm:"size:48" json:"short_name,omitempty"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	// Category is free text used to route tickets to counters. Older orders
	// may not carry one.
	Category string `gorm:"size:100" json:"category,omitempty"`
}

// BeforeCreate generates a UUID before creating a new line item
func (li *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderLineItem model
func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// DisplayName is the receipt-safe name, falling back to the full name.
func (li OrderLineItem) DisplayName() string {
	if li.ShortName != "" {
		return li.ShortName
	}
	return li.Name
}

// LineTotal is unit price times quantity.
func (li OrderLineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SumLineTotals adds up the line totals of items.
func SumLineTotals(items []OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
