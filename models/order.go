package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// Order is a purchase. All amounts are integer pence; CreditUsedPence records
// store credit redeemed against this order (redemptions are a property of the
// order that consumed the credit, not a separate ledger row).
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	CustomerEmail   string             `bson:"customerEmail" json:"customerEmail"`
	SubtotalPence   int64              `bson:"subtotalPence" json:"subtotalPence"`
	CreditUsedPence int64              `bson:"creditUsedPence" json:"creditUsedPence"`
	DiscountPence   int64              `bson:"discountPence" json:"discountPence"`
	Status          string             `bson:"status" json:"status"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderCompletedPayload is the body of the payment processor's completion
// webhook. The processor may deliver it more than once for the same order.
type OrderCompletedPayload struct {
	OrderNumber     string `json:"order_number" validate:"required"`
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	SubtotalPence   int64  `json:"subtotal_pence" validate:"required"`
	CreditUsedPence int64  `json:"credit_used_pence"`
	DiscountPence   int64  `json:"discount_pence"`
	CompletedAt     string `json:"completed_at"`
}
