package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/utils"
)

// Commission rate schedule. The first completed order for an attributed
// customer uses the rate snapshotted on the attribution (DefaultInitialRate
// when the snapshot carries no rate); every later order uses the trailing rate.
const (
	DefaultInitialRate = 20.0
	TrailingRate       = 5.0
)

// LedgerStore is the persistence surface of the ledger calculator.
type LedgerStore interface {
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id string) (*models.Customer, error)

	// ReferrerExists reports whether the attributed party still exists and is
	// active.
	ReferrerExists(ctx context.Context, referrerType string, referrerID primitive.ObjectID) (bool, error)

	// CountCompletedOrders counts completed orders for the email, excluding
	// the given order. Used to classify first vs. subsequent orders from
	// history rather than a cached flag.
	CountCompletedOrders(ctx context.Context, email string, exclude primitive.ObjectID) (int64, error)

	// UpsertCompletedOrder records the webhook's order, keyed by order
	// number, and returns the stored document. Retries yield the same row.
	UpsertCompletedOrder(ctx context.Context, payload models.OrderCompletedPayload) (*models.Order, error)

	// InsertEntry persists a ledger entry. A duplicate order reference
	// returns ErrConflict.
	InsertEntry(ctx context.Context, entry *models.LedgerEntry) error

	// InsertCreditEntry persists a credit entry and increments the recipient
	// customer's balance as one atomic write: either both land or neither
	// does. A duplicate order reference returns ErrConflict and leaves the
	// balance untouched.
	InsertCreditEntry(ctx context.Context, entry *models.LedgerEntry, customerID primitive.ObjectID) error

	EntriesByRecipient(ctx context.Context, recipientType string, recipientID primitive.ObjectID) ([]models.LedgerEntry, error)
	EntriesForOrders(ctx context.Context, orderIDs []primitive.ObjectID) ([]models.LedgerEntry, error)
	MarkEntriesPaid(ctx context.Context, recipientID primitive.ObjectID, orderIDs []primitive.ObjectID, paidAt time.Time) (int64, error)

	// RedemptionsByEmail lists completed orders where store credit was spent.
	RedemptionsByEmail(ctx context.Context, email string) ([]models.Order, error)

	// AddCredit atomically adjusts a customer's credit balance. A negative
	// delta that would take the balance below zero returns
	// ErrInsufficientBalance and leaves the balance unchanged.
	AddCredit(ctx context.Context, customerID primitive.ObjectID, deltaPence int64) error

	// SetDiscountApplied fills the attribution's discountApplied once.
	SetDiscountApplied(ctx context.Context, customerID primitive.ObjectID, pence int64) error
}

// LedgerNotifier receives new ledger entries, e.g. for the admin live feed.
type LedgerNotifier interface {
	LedgerEntryCreated(entry models.LedgerEntry)
}

// LedgerService computes commissions and credits for completed orders and
// serves the aggregated read side.
type LedgerService struct {
	store    LedgerStore
	notifier LedgerNotifier
	timeout  time.Duration
	now      func() time.Time
}

// NewLedgerService builds a ledger service. notifier may be nil.
func NewLedgerService(store LedgerStore, notifier LedgerNotifier) *LedgerService {
	return &LedgerService{
		store:    store,
		notifier: notifier,
		timeout:  10 * time.Second,
		now:      time.Now,
	}
}

// RecordCompletion computes and persists the ledger entry for a completed
// order. Returns (nil, nil) when the order's customer has no attribution:
// unattributed orders are expected and never an error. Safe to retry for the
// same order; the duplicate attempt reports ErrConflict.
func (s *LedgerService) RecordCompletion(ctx context.Context, order models.Order) (*models.LedgerEntry, error) {
	if order.SubtotalPence <= 0 {
		return nil, fmt.Errorf("%w: subtotal %d", ErrInvalidOrder, order.SubtotalPence)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	customer, err := s.store.FindCustomerByEmail(cctx, order.CustomerEmail)
	if errors.Is(err, ErrNoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find customer: %v", ErrUpstreamUnavailable, err)
	}
	if customer.Attribution == nil {
		return nil, nil
	}
	attribution := customer.Attribution

	exists, err := s.store.ReferrerExists(cctx, attribution.ReferrerType, attribution.ReferrerID)
	if err != nil {
		return nil, fmt.Errorf("%w: check referrer: %v", ErrUpstreamUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %s", ErrRecipientNotFound, attribution.ReferrerType, attribution.ReferrerID.Hex())
	}

	priorOrders, err := s.store.CountCompletedOrders(cctx, order.CustomerEmail, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: count orders: %v", ErrUpstreamUnavailable, err)
	}

	rate := s.selectRate(attribution, priorOrders)
	entry := &models.LedgerEntry{
		Kind:             entryKindFor(attribution.ReferrerType),
		RecipientType:    attribution.ReferrerType,
		RecipientID:      attribution.ReferrerID,
		OrderID:          order.ID,
		OrderAmountPence: order.SubtotalPence,
		AmountPence:      utils.ApplyRate(order.SubtotalPence, rate),
		Rate:             rate,
		Status:           models.EntryStatusPending,
		CreatedAt:        s.now(),
	}

	// Referring customers earn redeemable credit, not a payable commission.
	// The entry and the balance increment are one atomic write, so a failure
	// can never persist the entry with the credit missing.
	if entry.Kind == models.EntryKindCredit {
		err = s.store.InsertCreditEntry(cctx, entry, attribution.ReferrerID)
	} else {
		err = s.store.InsertEntry(cctx, entry)
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: insert entry: %v", ErrUpstreamUnavailable, err)
	}

	// First order: fill the attribution's discount snapshot in pence.
	if priorOrders == 0 && attribution.DiscountApplied == 0 && attribution.DiscountRate > 0 {
		discount := utils.ApplyRate(order.SubtotalPence, attribution.DiscountRate)
		if err := s.store.SetDiscountApplied(cctx, customer.ID, discount); err != nil {
			log.Printf("WARNING: failed to set discount applied for customer %s: %v", customer.ID.Hex(), err)
		}
	}

	if s.notifier != nil {
		s.notifier.LedgerEntryCreated(*entry)
	}

	return entry, nil
}

// selectRate applies the two-tier schedule using the snapshot on the
// attribution, never the code's current rate.
func (s *LedgerService) selectRate(attribution *models.Attribution, priorOrders int64) float64 {
	if priorOrders > 0 {
		return TrailingRate
	}
	if attribution.CommissionRate > 0 {
		return attribution.CommissionRate
	}
	return DefaultInitialRate
}

func entryKindFor(referrerType string) string {
	if referrerType == models.ReferrerCustomer {
		return models.EntryKindCredit
	}
	return models.EntryKindCommission
}

// SummarizeCredits folds a customer's credit ledger by status and joins the
// redemption history from orders that spent credit.
func (s *LedgerService) SummarizeCredits(ctx context.Context, customerID string) (*models.CreditReport, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	customer, err := s.store.FindCustomerByID(cctx, customerID)
	if errors.Is(err, ErrNoMatch) {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find customer: %v", ErrUpstreamUnavailable, err)
	}

	entries, err := s.store.EntriesByRecipient(cctx, models.ReferrerCustomer, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrUpstreamUnavailable, err)
	}

	redemptions, err := s.store.RedemptionsByEmail(cctx, customer.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: list redemptions: %v", ErrUpstreamUnavailable, err)
	}

	summary := models.CreditSummary{BalancePence: customer.CreditBalancePence}
	earned := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind == models.EntryKindAdjustment {
			continue
		}
		earned = append(earned, entry)
		summary.TotalEarnedPence += entry.AmountPence
		switch entry.Status {
		case models.EntryStatusPending:
			summary.PendingPence += entry.AmountPence
		case models.EntryStatusApproved:
			summary.ApprovedPence += entry.AmountPence
		case models.EntryStatusPaid:
			summary.PaidPence += entry.AmountPence
		}
	}
	for _, order := range redemptions {
		summary.RedeemedPence += order.CreditUsedPence
	}

	summary.TotalEarnedPounds = utils.PoundsString(summary.TotalEarnedPence)
	summary.PendingPounds = utils.PoundsString(summary.PendingPence)
	summary.ApprovedPounds = utils.PoundsString(summary.ApprovedPence)
	summary.RedeemedPounds = utils.PoundsString(summary.RedeemedPence)
	summary.CurrentBalance = utils.PoundsString(summary.BalancePence)

	return &models.CreditReport{
		Customer:      customer,
		Summary:       summary,
		EarnedCredits: earned,
		Redemptions:   redemptions,
	}, nil
}

// AdjustCredit applies a manual admin adjustment to a customer's balance and
// writes an audit row. Rejects adjustments that would go below zero.
func (s *LedgerService) AdjustCredit(ctx context.Context, customerID string, amountPence int64, reason string) (*models.LedgerEntry, error) {
	if amountPence == 0 || reason == "" {
		return nil, fmt.Errorf("%w: amount and reason are required", ErrInvalidInput)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	customer, err := s.store.FindCustomerByID(cctx, customerID)
	if errors.Is(err, ErrNoMatch) {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find customer: %v", ErrUpstreamUnavailable, err)
	}

	if err := s.store.AddCredit(cctx, customer.ID, amountPence); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		// The customer can vanish between the find and the update.
		if errors.Is(err, ErrNoMatch) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("%w: adjust credit: %v", ErrUpstreamUnavailable, err)
	}

	entry := &models.LedgerEntry{
		Kind:          models.EntryKindAdjustment,
		RecipientType: models.ReferrerCustomer,
		RecipientID:   customer.ID,
		AmountPence:   amountPence,
		Status:        models.EntryStatusApproved,
		Reason:        reason,
		CreatedAt:     s.now(),
	}
	if err := s.store.InsertEntry(cctx, entry); err != nil {
		log.Printf("WARNING: credit adjusted but audit entry failed for customer %s: %v", customer.ID.Hex(), err)
	}

	return entry, nil
}

// SummarizeCommissions folds a partner's or influencer's commission entries,
// optionally filtered to paid or unpaid.
func (s *LedgerService) SummarizeCommissions(ctx context.Context, recipientType, recipientID, statusFilter string) (*models.CommissionReport, error) {
	objID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: recipient id: %v", ErrInvalidInput, err)
	}
	if statusFilter != "" && statusFilter != "paid" && statusFilter != "unpaid" {
		return nil, fmt.Errorf("%w: status must be paid or unpaid", ErrInvalidInput)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.store.EntriesByRecipient(cctx, recipientType, objID)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrUpstreamUnavailable, err)
	}

	summary := models.CommissionSummary{}
	filtered := make([]models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind != models.EntryKindCommission {
			continue
		}
		summary.TotalEarnedPence += entry.AmountPence
		paid := entry.Status == models.EntryStatusPaid
		if paid {
			summary.PaidPence += entry.AmountPence
		} else {
			summary.UnpaidPence += entry.AmountPence
			switch entry.Status {
			case models.EntryStatusPending:
				summary.PendingPence += entry.AmountPence
			case models.EntryStatusApproved:
				summary.ApprovedPence += entry.AmountPence
			}
		}

		switch statusFilter {
		case "paid":
			if paid {
				filtered = append(filtered, entry)
			}
		case "unpaid":
			if !paid {
				filtered = append(filtered, entry)
			}
		default:
			filtered = append(filtered, entry)
		}
	}

	summary.TotalEarnedPounds = utils.PoundsString(summary.TotalEarnedPence)
	summary.PaidPounds = utils.PoundsString(summary.PaidPence)
	summary.UnpaidPounds = utils.PoundsString(summary.UnpaidPence)

	return &models.CommissionReport{Summary: summary, Entries: filtered}, nil
}

// MarkPaid transitions the caller's commission entries for the given orders
// to paid. Every order id must belong to the calling partner; otherwise
// nothing is modified.
func (s *LedgerService) MarkPaid(ctx context.Context, partnerID string, orderIDs []string) (int64, error) {
	partnerObjID, err := primitive.ObjectIDFromHex(partnerID)
	if err != nil {
		return 0, fmt.Errorf("%w: partner id: %v", ErrInvalidInput, err)
	}
	if len(orderIDs) == 0 {
		return 0, fmt.Errorf("%w: orderIds are required", ErrInvalidInput)
	}

	// De-duplicate so a repeated id cannot skew the ownership comparison.
	orderObjIDs := make([]primitive.ObjectID, 0, len(orderIDs))
	seen := make(map[primitive.ObjectID]bool, len(orderIDs))
	for _, id := range orderIDs {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, fmt.Errorf("%w: order id %q: %v", ErrInvalidInput, id, err)
		}
		if seen[objID] {
			continue
		}
		seen[objID] = true
		orderObjIDs = append(orderObjIDs, objID)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.store.EntriesForOrders(cctx, orderObjIDs)
	if err != nil {
		return 0, fmt.Errorf("%w: list entries: %v", ErrUpstreamUnavailable, err)
	}
	if len(entries) != len(orderObjIDs) {
		return 0, fmt.Errorf("%w: unknown order ids", ErrNotFound)
	}
	for _, entry := range entries {
		if entry.RecipientID != partnerObjID || entry.RecipientType != models.ReferrerPartner {
			return 0, ErrForbidden
		}
	}

	updated, err := s.store.MarkEntriesPaid(cctx, partnerObjID, orderObjIDs, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: mark paid: %v", ErrUpstreamUnavailable, err)
	}
	return updated, nil
}

// CompleteOrder records the webhook payload as a completed order and runs the
// ledger computation for it.
func (s *LedgerService) CompleteOrder(ctx context.Context, payload models.OrderCompletedPayload) (*models.Order, *models.LedgerEntry, error) {
	if payload.SubtotalPence <= 0 {
		return nil, nil, fmt.Errorf("%w: subtotal %d", ErrInvalidOrder, payload.SubtotalPence)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.store.UpsertCompletedOrder(cctx, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: upsert order: %v", ErrUpstreamUnavailable, err)
	}

	entry, err := s.RecordCompletion(ctx, *order)
	if err != nil {
		return order, nil, err
	}
	return order, entry, nil
}
