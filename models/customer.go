package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attribution links a customer to the party credited with referring them.
// Written at most once per customer (first-write-wins); the commission and
// discount rates are snapshots taken at resolution time so later rate edits
// never retroactively change existing attributions.
type Attribution struct {
	ReferrerType    string             `bson:"referrerType" json:"referrerType"`
	ReferrerID      primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	CodeUsed        string             `bson:"codeUsed" json:"codeUsed"`
	Kind            ReferralKind       `bson:"kind" json:"kind"`
	CommissionRate  float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate    float64            `bson:"discountRate" json:"discountRate"`
	DiscountApplied int64              `bson:"discountApplied" json:"discountApplied"`
	AppliedAt       time.Time          `bson:"appliedAt" json:"appliedAt"`
}

// Customer is a shopper account. PersonalCode is the durable vanity referral
// code; CreditBalancePence is the redeemable store-credit balance maintained
// by atomic increments only.
type Customer struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName           string             `bson:"fullName" json:"fullName"`
	Email              string             `bson:"email" json:"email"`
	AvatarURL          string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	PersonalCode       string             `bson:"personalCode,omitempty" json:"personalCode,omitempty"`
	CommissionRate     float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate       float64            `bson:"discountRate" json:"discountRate"`
	CreditBalancePence int64              `bson:"creditBalancePence" json:"creditBalancePence"`
	Attribution        *Attribution       `bson:"attribution,omitempty" json:"attribution,omitempty"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CreditAdjustmentRequest is the body of POST /api/customers/:id/credits.
// Amount is in pence and may be negative.
type CreditAdjustmentRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}
