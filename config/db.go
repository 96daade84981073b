// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use a local fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	// Log connection URI (without password for security)
	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// DatabaseName returns the configured database name.
func DatabaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "pawtraits"
	}
	return dbName
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DatabaseName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist. The
// unique indexes are load-bearing: they enforce code uniqueness per kind and
// turn duplicate ledger writes into storage-layer conflicts.
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DatabaseName())

	collections := []string{
		"customers", "partners", "influencers",
		"preregistrationCodes", "partnerReferrals", "customerReferrals",
		"orders", "ledgerEntries",
	}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	uniqueIndexes := map[string]bson.D{
		"preregistrationCodes": {{Key: "code", Value: 1}},
		"partnerReferrals":     {{Key: "code", Value: 1}},
		"customerReferrals":    {{Key: "code", Value: 1}},
	}
	for collName, keys := range uniqueIndexes {
		_, err := db.Collection(collName).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			log.Printf("Error creating code index for %s: %v", collName, err)
		}
	}

	// Sparse unique indexes for personal codes and emails
	sparseUnique := map[string]string{
		"customers":   "personalCode",
		"partners":    "personalCode",
		"influencers": "referralCode",
	}
	for collName, field := range sparseUnique {
		_, err := db.Collection(collName).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		})
		if err != nil {
			log.Printf("Error creating %s index for %s: %v", field, collName, err)
		}
	}

	_, err := db.Collection("customers").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	_, err = db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Error creating orderNumber index: %v", err)
	}

	_, err = db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customerEmail", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		log.Printf("Error creating order email index: %v", err)
	}

	// One ledger entry per order, enforced at the storage layer so webhook
	// retries can never double-credit. Partial: adjustments carry no orderId.
	_, err = db.Collection("ledgerEntries").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(
			bson.M{"orderId": bson.M{"$exists": true}},
		),
	})
	if err != nil {
		log.Printf("Error creating ledger orderId index: %v", err)
	}

	_, err = db.Collection("ledgerEntries").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipientType", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		log.Printf("Error creating ledger recipient index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
