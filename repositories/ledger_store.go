package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// LedgerStore is the MongoDB persistence layer for orders, ledger entries and
// customer credit balances.
type LedgerStore struct {
	db *mongo.Database
}

// NewLedgerStore creates a ledger store over the given database.
func NewLedgerStore(db *mongo.Database) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.Collection("customers").
		FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).
		Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *LedgerStore) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNoMatch
	}

	var customer models.Customer
	err = s.db.Collection("customers").FindOne(ctx, bson.M{"_id": objID}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ReferrerExists reports whether the attributed party still exists and is
// active. No commission is ever written against a missing recipient.
func (s *LedgerStore) ReferrerExists(ctx context.Context, referrerType string, referrerID primitive.ObjectID) (bool, error) {
	var collection string
	switch referrerType {
	case models.ReferrerPartner:
		collection = "partners"
	case models.ReferrerCustomer:
		collection = "customers"
	case models.ReferrerInfluencer:
		collection = "influencers"
	default:
		return false, fmt.Errorf("unknown referrer type: %s", referrerType)
	}

	count, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": referrerID, "isActive": true})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountCompletedOrders recomputes order history on every call so corrections
// to historical orders are reflected, rather than trusting a cached flag.
func (s *LedgerStore) CountCompletedOrders(ctx context.Context, email string, exclude primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"customerEmail": strings.ToLower(strings.TrimSpace(email)),
		"status":        models.OrderStatusCompleted,
		"_id":           bson.M{"$ne": exclude},
	}
	return s.db.Collection("orders").CountDocuments(ctx, filter)
}

// UpsertCompletedOrder stores the webhook's order keyed by order number.
// Redelivered webhooks find the original document, so downstream ledger
// writes collide on the same order id.
func (s *LedgerStore) UpsertCompletedOrder(ctx context.Context, payload models.OrderCompletedPayload) (*models.Order, error) {
	completedAt := time.Now()
	if payload.CompletedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, payload.CompletedAt); err == nil {
			completedAt = parsed
		}
	}

	now := time.Now()
	filter := bson.M{"orderNumber": payload.OrderNumber}
	update := bson.M{
		"$setOnInsert": bson.M{
			"orderNumber":     payload.OrderNumber,
			"customerEmail":   strings.ToLower(strings.TrimSpace(payload.CustomerEmail)),
			"subtotalPence":   payload.SubtotalPence,
			"creditUsedPence": payload.CreditUsedPence,
			"discountPence":   payload.DiscountPence,
			"status":          models.OrderStatusCompleted,
			"completedAt":     completedAt,
			"createdAt":       now,
		},
		"$set": bson.M{"updatedAt": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var order models.Order
	if err := s.db.Collection("orders").FindOneAndUpdate(ctx, filter, update, opts).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertEntry persists a ledger entry. The unique partial index on orderId
// turns webhook retries into ErrConflict instead of double-credits.
func (s *LedgerStore) InsertEntry(ctx context.Context, entry *models.LedgerEntry) error {
	result, err := s.db.Collection("ledgerEntries").InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return services.ErrConflict
		}
		return err
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = id
	}
	return nil
}

// InsertCreditEntry inserts a credit entry and increments the customer's
// balance in one transaction. Either both writes commit or the transaction
// aborts, so a webhook retry after a failure finds no entry and starts clean.
func (s *LedgerStore) InsertCreditEntry(ctx context.Context, entry *models.LedgerEntry, customerID primitive.ObjectID) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := s.db.Collection("ledgerEntries").InsertOne(sc, entry)
		if err != nil {
			return nil, err
		}
		if id, ok := result.InsertedID.(primitive.ObjectID); ok {
			entry.ID = id
		}
		return nil, s.addCredit(sc, customerID, entry.AmountPence)
	})
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrConflict
	}
	return err
}

func (s *LedgerStore) EntriesByRecipient(ctx context.Context, recipientType string, recipientID primitive.ObjectID) ([]models.LedgerEntry, error) {
	filter := bson.M{"recipientType": recipientType, "recipientId": recipientID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.db.Collection("ledgerEntries").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *LedgerStore) EntriesForOrders(ctx context.Context, orderIDs []primitive.ObjectID) ([]models.LedgerEntry, error) {
	cursor, err := s.db.Collection("ledgerEntries").Find(ctx, bson.M{"orderId": bson.M{"$in": orderIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *LedgerStore) MarkEntriesPaid(ctx context.Context, recipientID primitive.ObjectID, orderIDs []primitive.ObjectID, paidAt time.Time) (int64, error) {
	filter := bson.M{
		"orderId":       bson.M{"$in": orderIDs},
		"recipientId":   recipientID,
		"recipientType": models.ReferrerPartner,
		"status":        bson.M{"$ne": models.EntryStatusPaid},
	}
	update := bson.M{"$set": bson.M{
		"status": models.EntryStatusPaid,
		"paidAt": paidAt,
	}}

	result, err := s.db.Collection("ledgerEntries").UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// RedemptionsByEmail lists completed orders that spent store credit.
// Redemption is a property of the consuming order, not a ledger row.
func (s *LedgerStore) RedemptionsByEmail(ctx context.Context, email string) ([]models.Order, error) {
	filter := bson.M{
		"customerEmail":   strings.ToLower(strings.TrimSpace(email)),
		"creditUsedPence": bson.M{"$gt": 0},
		"status":          models.OrderStatusCompleted,
	}
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	cursor, err := s.db.Collection("orders").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AddCredit atomically adjusts the balance. For a negative delta the filter
// requires enough balance, so the floor is enforced by the storage layer.
func (s *LedgerStore) AddCredit(ctx context.Context, customerID primitive.ObjectID, deltaPence int64) error {
	return s.addCredit(ctx, customerID, deltaPence)
}

func (s *LedgerStore) addCredit(ctx context.Context, customerID primitive.ObjectID, deltaPence int64) error {
	filter := bson.M{"_id": customerID}
	if deltaPence < 0 {
		filter["creditBalancePence"] = bson.M{"$gte": -deltaPence}
	}
	update := bson.M{
		"$inc": bson.M{"creditBalancePence": deltaPence},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := s.db.Collection("customers").UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := s.db.Collection("customers").CountDocuments(ctx, bson.M{"_id": customerID})
	if err != nil {
		return err
	}
	if count == 0 {
		return services.ErrNoMatch
	}
	return services.ErrInsufficientBalance
}

// SetDiscountApplied fills the attribution's discount snapshot once; later
// orders never overwrite it.
func (s *LedgerStore) SetDiscountApplied(ctx context.Context, customerID primitive.ObjectID, pence int64) error {
	filter := bson.M{"_id": customerID, "attribution.discountApplied": 0}
	update := bson.M{"$set": bson.M{
		"attribution.discountApplied": pence,
		"updatedAt":                   time.Now(),
	}}
	_, err := s.db.Collection("customers").UpdateOne(ctx, filter, update)
	return err
}
