package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey remembers the response to a client-keyed write, so a POS
// that resends a checkout after a dropped connection does not create and
// print the order twice.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"size:255;not null;uniqueIndex:idx_idempotency_user_key"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_user_key"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/orders"
	RequestHash  string    `gorm:"size:64"`           // hex SHA-256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// ExpiredAt reports whether the key has expired at now.
func (i *IdempotencyKey) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
