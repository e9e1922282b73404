package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one cart line.
type OrderItemRequest struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name" binding:"required,max=255"`
	ShortName string          `json:"short_name" binding:"max=48"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Category  string          `json:"category" binding:"max=100"`
}

// CheckoutRequest completes a sale and prints it.
type CheckoutRequest struct {
	PhoneNumber string             `json:"phone_number" binding:"omitempty,max=20"`
	Items       []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Strategy    string             `json:"strategy" binding:"omitempty,oneof=auto usb serial network browser"`
	ByCategory  *bool              `json:"by_category"`
	SkipPrint   bool               `json:"skip_print"`
}

// UpdateOrderStatusRequest moves an order through the kitchen.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending preparing ready completed"`
}
