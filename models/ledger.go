package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ledger entry kinds. Commissions are payable to partners/influencers; credits
// feed a customer's redeemable balance; adjustments are manual admin changes.
const (
	EntryKindCommission = "commission"
	EntryKindCredit     = "credit"
	EntryKindAdjustment = "adjustment"
)

// Ledger entry statuses. Transitions are monotonic: pending -> approved -> paid.
const (
	EntryStatusPending  = "pending"
	EntryStatusApproved = "approved"
	EntryStatusPaid     = "paid"
)

// LedgerEntry is one computed commission or credit tied to a specific order.
// AmountPence = round-half-up(OrderAmountPence * Rate / 100), using the rate
// snapshotted on the attribution, never the code's current rate. OrderID is
// empty for manual adjustments.
type LedgerEntry struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind             string             `bson:"kind" json:"kind"`
	RecipientType    string             `bson:"recipientType" json:"recipientType"`
	RecipientID      primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	OrderID          primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	OrderAmountPence int64              `bson:"orderAmountPence,omitempty" json:"orderAmountPence,omitempty"`
	AmountPence      int64              `bson:"amountPence" json:"amountPence"`
	Rate             float64            `bson:"rate,omitempty" json:"rate,omitempty"`
	Status           string             `bson:"status" json:"status"`
	Reason           string             `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	PaidAt           *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// CreditSummary aggregates a customer's credit ledger. Pence fields are the
// source of truth; the pounds strings exist only for the presentation edge.
type CreditSummary struct {
	TotalEarnedPence  int64  `json:"total_earned_pence"`
	PendingPence      int64  `json:"pending_credits_pence"`
	ApprovedPence     int64  `json:"approved_credits_pence"`
	PaidPence         int64  `json:"paid_credits_pence"`
	RedeemedPence     int64  `json:"total_redeemed_pence"`
	BalancePence      int64  `json:"current_balance_pence"`
	TotalEarnedPounds string `json:"total_earned_pounds"`
	PendingPounds     string `json:"pending_credits_pounds"`
	ApprovedPounds    string `json:"approved_credits_pounds"`
	RedeemedPounds    string `json:"total_redeemed_pounds"`
	CurrentBalance    string `json:"current_balance_pounds"`
}

// CreditReport is the full read-side view for GET /api/customers/:id/credits.
type CreditReport struct {
	Customer      *Customer     `json:"customer"`
	Summary       CreditSummary `json:"summary"`
	EarnedCredits []LedgerEntry `json:"earned_credits"`
	Redemptions   []Order       `json:"redemptions"`
}

// CommissionSummary aggregates a partner's or influencer's commission ledger.
type CommissionSummary struct {
	TotalEarnedPence  int64  `json:"total_earned_pence"`
	PendingPence      int64  `json:"pending_pence"`
	ApprovedPence     int64  `json:"approved_pence"`
	PaidPence         int64  `json:"paid_pence"`
	UnpaidPence       int64  `json:"unpaid_pence"`
	TotalEarnedPounds string `json:"total_earned_pounds"`
	PaidPounds        string `json:"paid_pounds"`
	UnpaidPounds      string `json:"unpaid_pounds"`
}

// CommissionReport is the read-side view for GET /api/partners/:id/commissions.
type CommissionReport struct {
	Summary CommissionSummary `json:"summary"`
	Entries []LedgerEntry     `json:"entries"`
}
