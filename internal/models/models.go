package models

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Sentinel errors shared by the stores and handlers.
var (
	ErrSchemaNotFound = errors.New("schema not found or unauthorized")
	ErrOrderNotFound  = errors.New("order not found")
	ErrStatusFinal    = errors.New("order already in final status")
	ErrOTPInvalid     = errors.New("otp invalid or expired")
)

// OrderStatus is the linear delivery status of a record. Transitions only
// move forward, one step at a time, via direct database writes.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusDispatched OrderStatus = "dispatched"
	StatusDelivered  OrderStatus = "delivered"
)

var statusOrder = []OrderStatus{StatusPending, StatusConfirmed, StatusDispatched, StatusDelivered}

// Next returns the following status in the linear progression, or false when
// the status is terminal or unknown.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, status := range statusOrder {
		if status == s && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// Valid reports whether the value is one of the recognised statuses.
func (s OrderStatus) Valid() bool {
	for _, status := range statusOrder {
		if status == s {
			return true
		}
	}
	return false
}

// FormSchema is a merchant-owned, named record shape.
type FormSchema struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchantId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FormField is one named, typed slot within a schema. Position fixes the
// field order that auto-detect matching depends on.
type FormField struct {
	FieldKey string `json:"field_key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Position int    `json:"position"`
}

// Order is one persisted record, imported or hand-entered. Data holds the
// normalized field values keyed by field key; null values stay null.
type Order struct {
	ID         string         `json:"id"`
	SchemaID   string         `json:"schemaId"`
	MerchantID string         `json:"merchantId"`
	Data       map[string]any `json:"data"`
	Status     OrderStatus    `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Merchant is an authenticated owner of schemas and orders.
type Merchant struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
