package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/services"
)

// NewCodeSources returns the resolver's candidate sources in business
// precedence order: invitational codes outrank organic codes, and
// partner-sourced codes outrank customer-sourced ones.
func NewCodeSources(db *mongo.Database) []services.CodeSource {
	return []services.CodeSource{
		&preregistrationSource{db: db},
		&partnerReferralSource{db: db},
		&customerReferralSource{db: db},
		&influencerSource{db: db},
		&partnerPersonalSource{db: db},
		&customerPersonalSource{db: db},
	}
}

// preregistrationSource matches invite codes already claimed by a partner
// (status "used"), which makes them usable by that partner's customers.
type preregistrationSource struct {
	db *mongo.Database
}

func (s *preregistrationSource) Kind() models.ReferralKind { return models.KindPreRegistration }

func (s *preregistrationSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var record models.PreregistrationCode
	err := s.db.Collection("preregistrationCodes").
		FindOne(ctx, bson.M{"code": code, "status": models.CodeStatusUsed}).
		Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	partner, err := findActivePartner(ctx, s.db, record.PartnerID)
	if err != nil {
		return nil, err
	}

	return &models.ReferralCandidate{
		ID:             record.ID,
		Code:           record.Code,
		Kind:           s.Kind(),
		Status:         record.Status,
		ExpiresAt:      record.ExpiresAt,
		CommissionRate: rateOrDefault(record.CommissionRate, partner.CommissionRate),
		DiscountRate:   rateOrDefault(record.DiscountRate, partner.DiscountRate),
		Referrer:       partnerReferrer(partner),
	}, nil
}

// partnerReferralSource matches partner-to-customer referrals with status
// "accepted".
type partnerReferralSource struct {
	db *mongo.Database
}

func (s *partnerReferralSource) Kind() models.ReferralKind { return models.KindPartnerReferral }

func (s *partnerReferralSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var record models.PartnerReferral
	err := s.db.Collection("partnerReferrals").
		FindOne(ctx, bson.M{"code": code, "status": models.ReferralStatusAccepted}).
		Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	partner, err := findActivePartner(ctx, s.db, record.PartnerID)
	if err != nil {
		return nil, err
	}

	return &models.ReferralCandidate{
		ID:             record.ID,
		Code:           record.Code,
		Kind:           s.Kind(),
		Status:         record.Status,
		ExpiresAt:      record.ExpiresAt,
		CommissionRate: rateOrDefault(record.CommissionRate, partner.CommissionRate),
		DiscountRate:   rateOrDefault(record.DiscountRate, partner.DiscountRate),
		Referrer:       partnerReferrer(partner),
	}, nil
}

// customerReferralSource matches customer-to-customer referrals with status
// "signed_up".
type customerReferralSource struct {
	db *mongo.Database
}

func (s *customerReferralSource) Kind() models.ReferralKind { return models.KindCustomerReferral }

func (s *customerReferralSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var record models.CustomerReferral
	err := s.db.Collection("customerReferrals").
		FindOne(ctx, bson.M{"code": code, "status": models.ReferralStatusSignedUp}).
		Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	customer, err := findActiveCustomer(ctx, s.db, record.CustomerID)
	if err != nil {
		return nil, err
	}

	return &models.ReferralCandidate{
		ID:             record.ID,
		Code:           record.Code,
		Kind:           s.Kind(),
		Status:         record.Status,
		ExpiresAt:      record.ExpiresAt,
		CommissionRate: rateOrDefault(record.CommissionRate, customer.CommissionRate),
		DiscountRate:   rateOrDefault(record.DiscountRate, customer.DiscountRate),
		Referrer:       customerReferrer(customer),
	}, nil
}

// influencerSource matches active influencer referral codes.
type influencerSource struct {
	db *mongo.Database
}

func (s *influencerSource) Kind() models.ReferralKind { return models.KindInfluencer }

func (s *influencerSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var influencer models.Influencer
	err := s.db.Collection("influencers").
		FindOne(ctx, bson.M{"referralCode": code, "isActive": true}).
		Decode(&influencer)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	name := influencer.Handle
	if name == "" {
		name = influencer.FullName
	}

	return &models.ReferralCandidate{
		ID:             influencer.ID,
		Code:           influencer.ReferralCode,
		Kind:           s.Kind(),
		Status:         models.CodeStatusActive,
		CommissionRate: influencer.CommissionRate,
		DiscountRate:   influencer.DiscountRate,
		Referrer: models.Referrer{
			ID:        influencer.ID,
			Type:      models.ReferrerInfluencer,
			Name:      name,
			AvatarURL: influencer.AvatarURL,
		},
	}, nil
}

// partnerPersonalSource matches an active partner's durable vanity code.
type partnerPersonalSource struct {
	db *mongo.Database
}

func (s *partnerPersonalSource) Kind() models.ReferralKind { return models.KindPartnerPersonal }

func (s *partnerPersonalSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var partner models.Partner
	err := s.db.Collection("partners").
		FindOne(ctx, bson.M{"personalCode": code, "isActive": true}).
		Decode(&partner)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	return &models.ReferralCandidate{
		ID:             partner.ID,
		Code:           partner.PersonalCode,
		Kind:           s.Kind(),
		Status:         models.CodeStatusActive,
		CommissionRate: partner.CommissionRate,
		DiscountRate:   partner.DiscountRate,
		Referrer:       partnerReferrer(&partner),
	}, nil
}

// customerPersonalSource matches a registered customer's vanity code.
type customerPersonalSource struct {
	db *mongo.Database
}

func (s *customerPersonalSource) Kind() models.ReferralKind { return models.KindCustomerPersonal }

func (s *customerPersonalSource) TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error) {
	var customer models.Customer
	err := s.db.Collection("customers").
		FindOne(ctx, bson.M{"personalCode": code, "isActive": true}).
		Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	return &models.ReferralCandidate{
		ID:             customer.ID,
		Code:           customer.PersonalCode,
		Kind:           s.Kind(),
		Status:         models.CodeStatusActive,
		CommissionRate: customer.CommissionRate,
		DiscountRate:   customer.DiscountRate,
		Referrer:       customerReferrer(&customer),
	}, nil
}

// findActivePartner loads the owning partner behind an invite code. A missing
// or deactivated owner means the code cannot match.
func findActivePartner(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*models.Partner, error) {
	var partner models.Partner
	err := db.Collection("partners").FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&partner)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func findActiveCustomer(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := db.Collection("customers").FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&customer)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func partnerReferrer(partner *models.Partner) models.Referrer {
	return models.Referrer{
		ID:        partner.ID,
		Type:      models.ReferrerPartner,
		Name:      partner.BusinessName,
		AvatarURL: partner.AvatarURL,
	}
}

func customerReferrer(customer *models.Customer) models.Referrer {
	return models.Referrer{
		ID:        customer.ID,
		Type:      models.ReferrerCustomer,
		Name:      customer.FullName,
		AvatarURL: customer.AvatarURL,
	}
}

func rateOrDefault(rate, fallback float64) float64 {
	if rate > 0 {
		return rate
	}
	return fallback
}
