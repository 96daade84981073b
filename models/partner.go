package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Partner is a groomer/breeder/vet business that refers customers. The
// commission and discount rates here are the current rates applied to new
// attributions; existing attributions keep their snapshot.
type Partner struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BusinessName   string             `bson:"businessName" json:"businessName"`
	Email          string             `bson:"email" json:"email"`
	AvatarURL      string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	PersonalCode   string             `bson:"personalCode,omitempty" json:"personalCode,omitempty"`
	CommissionRate float64            `bson:"commissionRate" json:"commissionRate"`
	DiscountRate   float64            `bson:"discountRate" json:"discountRate"`
	ScanCount      int64              `bson:"scanCount" json:"scanCount"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MarkPaidRequest is the body of PATCH /api/partners/commissions.
type MarkPaidRequest struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=1"`
	Action   string   `json:"action" validate:"required,eq=markPaid"`
}
