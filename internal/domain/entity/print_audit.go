package entity

import (
	"time"

	"github.com/google/uuid"
)

// PrintAudit records the outcome of one print job.
type PrintAudit struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	OrderNumber string     `gorm:"size:64;not null" json:"order_number"`
	Category    string     `gorm:"size:100" json:"category,omitempty"`
	Strategy    string     `gorm:"size:16;not null" json:"strategy"`
	Transport   string     `gorm:"size:16" json:"transport,omitempty"`
	PrinterID   string     `gorm:"size:255" json:"printer_id,omitempty"`
	Success     bool       `gorm:"not null" json:"success"`
	Guarantee   string     `gorm:"size:16" json:"guarantee,omitempty"`
	ErrorKind   string     `gorm:"size:64" json:"error_kind,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	Source      string     `gorm:"size:16;not null;default:'api'" json:"source"`
	RequestedBy *uuid.UUID `gorm:"type:uuid;index" json:"requested_by,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName returns the table name for PrintAudit
func (PrintAudit) TableName() string {
	return "print_audits"
}
