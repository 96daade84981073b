package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// AttributionStore persists attributions and scan counters on MongoDB.
type AttributionStore struct {
	db *mongo.Database
}

// NewAttributionStore creates an attribution store over the given database.
func NewAttributionStore(db *mongo.Database) *AttributionStore {
	return &AttributionStore{db: db}
}

// ApplyAttribution writes the attribution only when none exists yet. The
// conditional filter makes first-write-wins a storage-layer guarantee, not an
// application-level check-then-write.
func (s *AttributionStore) ApplyAttribution(ctx context.Context, customerID string, att models.Attribution) error {
	objID, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return services.ErrNoMatch
	}

	filter := bson.M{"_id": objID, "attribution": nil}
	update := bson.M{"$set": bson.M{
		"attribution": att,
		"updatedAt":   time.Now(),
	}}

	result, err := s.db.Collection("customers").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the customer is unknown or already attributed.
	var customer models.Customer
	err = s.db.Collection("customers").FindOne(ctx, bson.M{"_id": objID}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return services.ErrNoMatch
	}
	if err != nil {
		return err
	}
	return services.ErrAlreadyAttributed
}

// RecordScan atomically increments the scan counter on the matched code
// document.
func (s *AttributionStore) RecordScan(ctx context.Context, kind models.ReferralKind, code string) error {
	var collection, field string
	switch kind {
	case models.KindPreRegistration:
		collection, field = "preregistrationCodes", "code"
	case models.KindPartnerReferral:
		collection, field = "partnerReferrals", "code"
	case models.KindCustomerReferral:
		collection, field = "customerReferrals", "code"
	case models.KindInfluencer:
		collection, field = "influencers", "referralCode"
	case models.KindPartnerPersonal:
		collection, field = "partners", "personalCode"
	case models.KindCustomerPersonal:
		collection, field = "customers", "personalCode"
	default:
		return fmt.Errorf("unknown referral kind: %s", kind)
	}

	update := bson.M{
		"$inc": bson.M{"scanCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{field: code}, update)
	return err
}
