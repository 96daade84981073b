package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Influencer is a social account with a promotional referral code. Influencer
// earnings are payable commissions, like partners, not store credit.
type Influencer struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Handle         string             `bson:"handle" json:"handle"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	AvatarURL      string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	ReferralCode   string             `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate   float64            `bson:"discountRate" json:"discountRate"`
	ScanCount      int64              `bson:"scanCount" json:"scanCount"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
