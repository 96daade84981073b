package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralKind identifies which candidate source a referral code belongs to.
// The declaration order mirrors resolution priority: invitational codes outrank
// organic codes, and partner-sourced codes outrank customer-sourced ones.
type ReferralKind string

const (
	KindPreRegistration  ReferralKind = "pre_registration"
	KindPartnerReferral  ReferralKind = "partner_referral"
	KindCustomerReferral ReferralKind = "customer_referral"
	KindInfluencer       ReferralKind = "influencer"
	KindPartnerPersonal  ReferralKind = "partner_personal"
	KindCustomerPersonal ReferralKind = "customer_personal"
)

// Referrer party types.
const (
	ReferrerPartner    = "partner"
	ReferrerCustomer   = "customer"
	ReferrerInfluencer = "influencer"
)

// Referral code statuses. Codes are never hard-deleted, only transitioned.
const (
	CodeStatusIssued   = "issued"
	CodeStatusActive   = "active"
	CodeStatusUsed     = "used"
	CodeStatusExpired  = "expired"
	CodeStatusInactive = "inactive"

	ReferralStatusInvited  = "invited"
	ReferralStatusAccepted = "accepted"
	ReferralStatusSignedUp = "signed_up"
)

// PreregistrationCode is an invite code issued to a partner before they
// complete signup. Once the partner claims it (status "used") the code becomes
// usable by that partner's customers.
type PreregistrationCode struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	BatchID        string             `bson:"batchId" json:"batchId"`
	PartnerID      primitive.ObjectID `bson:"partnerId,omitempty" json:"partnerId,omitempty"`
	Status         string             `bson:"status" json:"status"`
	ExpiresAt      *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate   float64            `bson:"discountRate" json:"discountRate"`
	ScanCount      int64              `bson:"scanCount" json:"scanCount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PartnerReferral is a partner-to-customer referral invitation.
type PartnerReferral struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	PartnerID      primitive.ObjectID `bson:"partnerId" json:"partnerId"`
	Status         string             `bson:"status" json:"status"`
	ExpiresAt      *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate   float64            `bson:"discountRate" json:"discountRate"`
	ScanCount      int64              `bson:"scanCount" json:"scanCount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CustomerReferral is a customer-to-customer referral invitation.
type CustomerReferral struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code           string             `bson:"code" json:"code"`
	CustomerID     primitive.ObjectID `bson:"customerId" json:"customerId"`
	Status         string             `bson:"status" json:"status"`
	ExpiresAt      *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate   float64            `bson:"discountRate" json:"discountRate"`
	ScanCount      int64              `bson:"scanCount" json:"scanCount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Referrer describes the party behind a resolved code, for display.
type Referrer struct {
	ID        primitive.ObjectID `json:"id"`
	Type      string             `json:"type"`
	Name      string             `json:"name"`
	AvatarURL string             `json:"avatarUrl,omitempty"`
}

// ReferralCandidate is the normalized result of a successful code resolution,
// regardless of which source it came from.
type ReferralCandidate struct {
	ID             primitive.ObjectID `json:"id"`
	Code           string             `json:"code"`
	Kind           ReferralKind       `json:"type"`
	Status         string             `json:"status"`
	ExpiresAt      *time.Time         `json:"expires_at,omitempty"`
	CommissionRate float64            `json:"commission_rate"`
	DiscountRate   float64            `json:"discount_rate"`
	Referrer       Referrer           `json:"referrer"`
}

// ApplyReferralRequest is the body of POST /referrals/verify/:code.
type ApplyReferralRequest struct {
	CustomerID    string `json:"customer_id" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
}

// IssueBatchRequest is the body of POST /api/admin/preregistrations. Rates
// default when omitted; zero discount is a valid choice, zero commission is not.
type IssueBatchRequest struct {
	Count          int        `json:"count" validate:"required,min=1,max=500"`
	CommissionRate float64    `json:"commission_rate" validate:"omitempty,gt=0,lte=100"`
	DiscountRate   float64    `json:"discount_rate" validate:"omitempty,gte=0,lte=100"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// IssueReferralRequest is the body of the partner/customer referral issuance
// endpoints.
type IssueReferralRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
