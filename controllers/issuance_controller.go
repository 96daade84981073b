// controllers/issuance_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawtraits-dev/pawtraits-sub013/middleware"
	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
	"github.com/pawtraits-dev/pawtraits-sub013/utils"
)

// Invitation codes lapse after this window unless the issuer sets an expiry.
const defaultInvitationTTL = 30 * 24 * time.Hour

// IssuanceController creates referral codes: admin pre-registration batches,
// partner/customer invitation codes and on-demand personal codes.
type IssuanceController struct {
	DB *mongo.Database
}

// NewIssuanceController creates a new issuance controller
func NewIssuanceController(db *mongo.Database) *IssuanceController {
	return &IssuanceController{DB: db}
}

// IssuePreregistrationBatch creates a batch of PRE- invite codes. POST
// /api/admin/preregistrations.
func (ic *IssuanceController) IssuePreregistrationBatch(c echo.Context) error {
	var req models.IssueBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "count must be between 1 and 500",
		})
	}

	commissionRate := req.CommissionRate
	if commissionRate == 0 {
		commissionRate = services.DefaultInitialRate
	}

	batchID := uuid.NewString()
	now := time.Now()
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	codes := make([]models.PreregistrationCode, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		code, err := ic.insertWithFreshCode(ctx, "preregistrationCodes", func(code string) interface{} {
			return models.PreregistrationCode{
				Code:           code,
				BatchID:        batchID,
				Status:         models.CodeStatusIssued,
				ExpiresAt:      req.ExpiresAt,
				CommissionRate: commissionRate,
				DiscountRate:   req.DiscountRate,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		}, utils.GeneratePreregistrationCode)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to issue batch",
			})
		}
		codes = append(codes, models.PreregistrationCode{
			Code:           code,
			BatchID:        batchID,
			Status:         models.CodeStatusIssued,
			ExpiresAt:      req.ExpiresAt,
			CommissionRate: commissionRate,
			DiscountRate:   req.DiscountRate,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	log.Printf("Issued pre-registration batch %s with %d codes", batchID, len(codes))

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Pre-registration batch issued",
		Data: map[string]interface{}{
			"batchId": batchID,
			"codes":   codes,
		},
	})
}

// IssuePartnerReferral creates a PTR- invitation code for the calling partner.
// POST /api/partners/referrals.
func (ic *IssuanceController) IssuePartnerReferral(c echo.Context) error {
	partnerID, err := middleware.ExtractObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.IssueReferralRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var partner models.Partner
	err = ic.DB.Collection("partners").
		FindOne(ctx, bson.M{"_id": partnerID, "isActive": true}).
		Decode(&partner)
	if err == mongo.ErrNoDocuments {
		return errorResponse(c, services.ErrNotFound)
	}
	if err != nil {
		return errorResponse(c, services.ErrUpstreamUnavailable)
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(defaultInvitationTTL)
		expiresAt = &t
	}

	now := time.Now()
	code, err := ic.insertWithFreshCode(ctx, "partnerReferrals", func(code string) interface{} {
		return models.PartnerReferral{
			Code:           code,
			PartnerID:      partner.ID,
			Status:         models.ReferralStatusInvited,
			ExpiresAt:      expiresAt,
			CommissionRate: partner.CommissionRate,
			DiscountRate:   partner.DiscountRate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}, utils.GeneratePartnerCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to issue referral code",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Referral code issued",
		Data: map[string]interface{}{
			"code":      code,
			"expiresAt": expiresAt,
		},
	})
}

// IssueCustomerReferral creates a CUS- invitation code for the calling
// customer. POST /api/customers/referrals.
func (ic *IssuanceController) IssueCustomerReferral(c echo.Context) error {
	customerID, err := middleware.ExtractObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.IssueReferralRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var customer models.Customer
	err = ic.DB.Collection("customers").
		FindOne(ctx, bson.M{"_id": customerID, "isActive": true}).
		Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return errorResponse(c, services.ErrNotFound)
	}
	if err != nil {
		return errorResponse(c, services.ErrUpstreamUnavailable)
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(defaultInvitationTTL)
		expiresAt = &t
	}

	now := time.Now()
	code, err := ic.insertWithFreshCode(ctx, "customerReferrals", func(code string) interface{} {
		return models.CustomerReferral{
			Code:           code,
			CustomerID:     customer.ID,
			Status:         models.ReferralStatusInvited,
			ExpiresAt:      expiresAt,
			CommissionRate: customer.CommissionRate,
			DiscountRate:   customer.DiscountRate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}, utils.GenerateCustomerCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to issue referral code",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Referral code issued",
		Data: map[string]interface{}{
			"code":      code,
			"expiresAt": expiresAt,
		},
	})
}

// EnsurePartnerPersonalCode returns the calling partner's durable personal
// code, generating it on first request. POST /api/partners/personal-code.
func (ic *IssuanceController) EnsurePartnerPersonalCode(c echo.Context) error {
	return ic.ensurePersonalCode(c, "partners", utils.GeneratePartnerCode)
}

// EnsureCustomerPersonalCode returns the calling customer's durable personal
// code, generating it on first request. POST /api/customers/personal-code.
func (ic *IssuanceController) EnsureCustomerPersonalCode(c echo.Context) error {
	return ic.ensurePersonalCode(c, "customers", utils.GenerateCustomerCode)
}

func (ic *IssuanceController) ensurePersonalCode(c echo.Context, collection string, generate func() (string, error)) error {
	ownerID, err := middleware.ExtractObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Racing requests both try the conditional update; only one wins, then
	// both read back the same stored code.
	for attempt := 0; attempt < 3; attempt++ {
		var doc struct {
			PersonalCode string `bson:"personalCode"`
		}
		err := ic.DB.Collection(collection).FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			return errorResponse(c, services.ErrNotFound)
		}
		if err != nil {
			return errorResponse(c, services.ErrUpstreamUnavailable)
		}
		if doc.PersonalCode != "" {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Personal code retrieved",
				Data:    map[string]interface{}{"code": doc.PersonalCode},
			})
		}

		code, err := generate()
		if err != nil {
			return errorResponse(c, services.ErrUpstreamUnavailable)
		}
		result, err := ic.DB.Collection(collection).UpdateOne(ctx,
			bson.M{"_id": ownerID, "personalCode": bson.M{"$in": bson.A{nil, ""}}},
			bson.M{"$set": bson.M{"personalCode": code, "updatedAt": time.Now()}},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return errorResponse(c, services.ErrUpstreamUnavailable)
		}
		if result.ModifiedCount == 1 {
			return c.JSON(http.StatusCreated, models.Response{
				Status:  http.StatusCreated,
				Message: "Personal code issued",
				Data:    map[string]interface{}{"code": code},
			})
		}
	}

	return errorResponse(c, services.ErrUpstreamUnavailable)
}

// insertWithFreshCode inserts a code document, regenerating on the rare
// collision with the collection's unique code index.
func (ic *IssuanceController) insertWithFreshCode(ctx context.Context, collection string, build func(code string) interface{}, generate func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generate()
		if err != nil {
			return "", err
		}
		_, err = ic.DB.Collection(collection).InsertOne(ctx, build(code))
		if err == nil {
			return code, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
