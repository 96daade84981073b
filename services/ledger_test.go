package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
)

type fakeLedgerStore struct {
	customersByEmail map[string]*models.Customer
	customersByID    map[string]*models.Customer
	referrerGone     bool
	completedOrders  int64
	orders           map[string]*models.Order
	entries          []models.LedgerEntry
	entriesByOrder   map[primitive.ObjectID]bool
	redemptions      []models.Order
	creditDeltas     []int64
	discountApplied  int64
	insertErr        error
	addCreditErr     error
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		customersByEmail: make(map[string]*models.Customer),
		customersByID:    make(map[string]*models.Customer),
		orders:           make(map[string]*models.Order),
		entriesByOrder:   make(map[primitive.ObjectID]bool),
	}
}

func (f *fakeLedgerStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	c, ok := f.customersByEmail[email]
	if !ok {
		return nil, ErrNoMatch
	}
	return c, nil
}

func (f *fakeLedgerStore) FindCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	c, ok := f.customersByID[id]
	if !ok {
		return nil, ErrNoMatch
	}
	return c, nil
}

func (f *fakeLedgerStore) ReferrerExists(ctx context.Context, referrerType string, referrerID primitive.ObjectID) (bool, error) {
	return !f.referrerGone, nil
}

func (f *fakeLedgerStore) CountCompletedOrders(ctx context.Context, email string, exclude primitive.ObjectID) (int64, error) {
	return f.completedOrders, nil
}

func (f *fakeLedgerStore) UpsertCompletedOrder(ctx context.Context, payload models.OrderCompletedPayload) (*models.Order, error) {
	if existing, ok := f.orders[payload.OrderNumber]; ok {
		return existing, nil
	}
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		OrderNumber:     payload.OrderNumber,
		CustomerEmail:   payload.CustomerEmail,
		SubtotalPence:   payload.SubtotalPence,
		CreditUsedPence: payload.CreditUsedPence,
		Status:          models.OrderStatusCompleted,
	}
	f.orders[payload.OrderNumber] = order
	return order, nil
}

func (f *fakeLedgerStore) InsertEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if !entry.OrderID.IsZero() {
		if f.entriesByOrder[entry.OrderID] {
			return ErrConflict
		}
		f.entriesByOrder[entry.OrderID] = true
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerStore) InsertCreditEntry(ctx context.Context, entry *models.LedgerEntry, customerID primitive.ObjectID) error {
	// Atomic like the mongo transaction: a failure persists neither write.
	if f.addCreditErr != nil {
		return f.addCreditErr
	}
	if err := f.InsertEntry(ctx, entry); err != nil {
		return err
	}
	f.creditDeltas = append(f.creditDeltas, entry.AmountPence)
	return nil
}

func (f *fakeLedgerStore) EntriesByRecipient(ctx context.Context, recipientType string, recipientID primitive.ObjectID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.RecipientType == recipientType && e.RecipientID == recipientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) EntriesForOrders(ctx context.Context, orderIDs []primitive.ObjectID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		for _, id := range orderIDs {
			if e.OrderID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) MarkEntriesPaid(ctx context.Context, recipientID primitive.ObjectID, orderIDs []primitive.ObjectID, paidAt time.Time) (int64, error) {
	var updated int64
	for i := range f.entries {
		e := &f.entries[i]
		if e.RecipientID != recipientID || e.Status == models.EntryStatusPaid {
			continue
		}
		for _, id := range orderIDs {
			if e.OrderID == id {
				e.Status = models.EntryStatusPaid
				e.PaidAt = &paidAt
				updated++
			}
		}
	}
	return updated, nil
}

func (f *fakeLedgerStore) RedemptionsByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return f.redemptions, nil
}

func (f *fakeLedgerStore) AddCredit(ctx context.Context, customerID primitive.ObjectID, deltaPence int64) error {
	if f.addCreditErr != nil {
		return f.addCreditErr
	}
	f.creditDeltas = append(f.creditDeltas, deltaPence)
	return nil
}

func (f *fakeLedgerStore) SetDiscountApplied(ctx context.Context, customerID primitive.ObjectID, pence int64) error {
	f.discountApplied = pence
	return nil
}

func attributedCustomer(email string, referrerType string, commissionRate, discountRate float64) *models.Customer {
	return &models.Customer{
		ID:    primitive.NewObjectID(),
		Email: email,
		Attribution: &models.Attribution{
			ReferrerType:   referrerType,
			ReferrerID:     primitive.NewObjectID(),
			CodeUsed:       "PTR-TEST01",
			Kind:           models.KindPartnerReferral,
			CommissionRate: commissionRate,
			DiscountRate:   discountRate,
		},
	}
}

func completedOrder(email string, subtotal int64) models.Order {
	return models.Order{
		ID:            primitive.NewObjectID(),
		OrderNumber:   "PW-1001",
		CustomerEmail: email,
		SubtotalPence: subtotal,
		Status:        models.OrderStatusCompleted,
	}
}

func TestRecordCompletionFirstOrderUsesSnapshotRate(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 20.0, 10.0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 10000))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.AmountPence != 2000 {
		t.Errorf("first order commission = %d pence, want 2000", entry.AmountPence)
	}
	if entry.Rate != 20.0 {
		t.Errorf("rate = %v, want 20.0", entry.Rate)
	}
	if entry.Kind != models.EntryKindCommission {
		t.Errorf("kind = %s, want commission", entry.Kind)
	}
	if entry.Status != models.EntryStatusPending {
		t.Errorf("status = %s, want pending", entry.Status)
	}
}

func TestRecordCompletionSubsequentOrderUsesTrailingRate(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 20.0, 10.0)
	store.customersByEmail[customer.Email] = customer
	store.completedOrders = 1

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 10000))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.AmountPence != 500 {
		t.Errorf("trailing commission = %d pence, want 500", entry.AmountPence)
	}
	if entry.Rate != TrailingRate {
		t.Errorf("rate = %v, want %v", entry.Rate, TrailingRate)
	}
}

func TestRecordCompletionZeroSnapshotFallsBackToDefaultRate(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 0, 0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 10000))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.Rate != DefaultInitialRate {
		t.Errorf("rate = %v, want default %v", entry.Rate, DefaultInitialRate)
	}
}

func TestRecordCompletionRoundsHalfUp(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 15.0, 0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	// 333 * 15% = 49.95, rounds up to 50
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 333))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.AmountPence != 50 {
		t.Errorf("commission = %d pence, want 50", entry.AmountPence)
	}
}

func TestRecordCompletionUnattributedOrderIsSkipped(t *testing.T) {
	store := newFakeLedgerStore()
	store.customersByEmail["jo@example.com"] = &models.Customer{
		ID:    primitive.NewObjectID(),
		Email: "jo@example.com",
	}

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder("jo@example.com", 10000))
	if err != nil {
		t.Fatalf("unattributed order should not error: %v", err)
	}
	if entry != nil {
		t.Errorf("unattributed order produced entry %+v", entry)
	}

	// Unknown customer email behaves the same way.
	entry, err = svc.RecordCompletion(context.Background(), completedOrder("nobody@example.com", 10000))
	if err != nil || entry != nil {
		t.Errorf("unknown customer: entry=%v err=%v", entry, err)
	}
}

func TestRecordCompletionInvalidSubtotal(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore(), nil)
	for _, subtotal := range []int64{0, -500} {
		if _, err := svc.RecordCompletion(context.Background(), completedOrder("jo@example.com", subtotal)); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("subtotal %d: expected ErrInvalidOrder, got %v", subtotal, err)
		}
	}
}

func TestRecordCompletionMissingReferrer(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 20.0, 0)
	store.customersByEmail[customer.Email] = customer
	store.referrerGone = true

	svc := NewLedgerService(store, nil)
	_, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 10000))
	if !errors.Is(err, ErrRecipientNotFound) {
		t.Errorf("expected ErrRecipientNotFound, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("entry written despite missing referrer")
	}
}

func TestRecordCompletionDuplicateOrderConflicts(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 20.0, 0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	order := completedOrder(customer.Email, 10000)
	if _, err := svc.RecordCompletion(context.Background(), order); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	if _, err := svc.RecordCompletion(context.Background(), order); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on retry, got %v", err)
	}
	if len(store.entries) != 1 {
		t.Errorf("%d entries written for one order", len(store.entries))
	}
}

func TestRecordCompletionCustomerReferrerEarnsCredit(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerCustomer, 10.0, 10.0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 5000))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.Kind != models.EntryKindCredit {
		t.Errorf("kind = %s, want credit", entry.Kind)
	}
	if entry.AmountPence != 500 {
		t.Errorf("credit = %d pence, want 500", entry.AmountPence)
	}
	if len(store.creditDeltas) != 1 || store.creditDeltas[0] != 500 {
		t.Errorf("balance deltas = %v, want [500]", store.creditDeltas)
	}
}

func TestRecordCompletionCreditWriteIsAtomic(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerCustomer, 10.0, 0)
	store.customersByEmail[customer.Email] = customer
	store.addCreditErr = errors.New("write timeout")

	svc := NewLedgerService(store, nil)
	order := completedOrder(customer.Email, 5000)

	// A transient balance failure must not leave the entry behind, or the
	// retry would hit the unique index and the credit would be lost for good.
	if _, err := svc.RecordCompletion(context.Background(), order); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("entry persisted without its balance increment: %+v", store.entries)
	}
	if len(store.creditDeltas) != 0 {
		t.Fatalf("balance incremented despite failure: %v", store.creditDeltas)
	}

	// Once the failure clears, the retry lands both writes.
	store.addCreditErr = nil
	entry, err := svc.RecordCompletion(context.Background(), order)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if entry.AmountPence != 500 {
		t.Errorf("credit = %d pence, want 500", entry.AmountPence)
	}
	if len(store.creditDeltas) != 1 || store.creditDeltas[0] != 500 {
		t.Errorf("balance deltas = %v, want [500]", store.creditDeltas)
	}
}

func TestRecordCompletionFirstOrderFillsDiscountApplied(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerCustomer, 10.0, 10.0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	if _, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 5000)); err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if store.discountApplied != 500 {
		t.Errorf("discountApplied = %d pence, want 500", store.discountApplied)
	}
}

func TestRecordCompletionSnapshotSurvivesRateEdit(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 10.0, 10.0)
	// The partner's current rate was raised after attribution; the snapshot
	// must still govern.
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	entry, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 5000))
	if err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if entry.AmountPence != 500 || entry.Rate != 10.0 {
		t.Errorf("entry = %d pence at %v%%, want 500 at 10%%", entry.AmountPence, entry.Rate)
	}
}

type captureNotifier struct {
	entries []models.LedgerEntry
}

func (n *captureNotifier) LedgerEntryCreated(entry models.LedgerEntry) {
	n.entries = append(n.entries, entry)
}

func TestRecordCompletionNotifies(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 20.0, 0)
	store.customersByEmail[customer.Email] = customer

	notifier := &captureNotifier{}
	svc := NewLedgerService(store, notifier)
	if _, err := svc.RecordCompletion(context.Background(), completedOrder(customer.Email, 10000)); err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}
	if len(notifier.entries) != 1 {
		t.Fatalf("notifier received %d entries, want 1", len(notifier.entries))
	}
	if notifier.entries[0].AmountPence != 2000 {
		t.Errorf("notified amount = %d", notifier.entries[0].AmountPence)
	}
}

func TestCompleteOrderEndToEnd(t *testing.T) {
	store := newFakeLedgerStore()
	customer := attributedCustomer("jo@example.com", models.ReferrerPartner, 10.0, 10.0)
	store.customersByEmail[customer.Email] = customer

	svc := NewLedgerService(store, nil)
	payload := models.OrderCompletedPayload{
		OrderNumber:   "PW-2001",
		CustomerEmail: customer.Email,
		SubtotalPence: 5000,
	}

	order, entry, err := svc.CompleteOrder(context.Background(), payload)
	if err != nil {
		t.Fatalf("CompleteOrder returned error: %v", err)
	}
	if order.OrderNumber != "PW-2001" {
		t.Errorf("order number = %s", order.OrderNumber)
	}
	if entry == nil || entry.AmountPence != 500 {
		t.Fatalf("entry = %+v, want 500 pence", entry)
	}
	if store.discountApplied != 500 {
		t.Errorf("discountApplied = %d, want 500", store.discountApplied)
	}

	// Webhook retry: same order number, same stored order, conflicting entry.
	_, _, err = svc.CompleteOrder(context.Background(), payload)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("retry: expected ErrConflict, got %v", err)
	}
}

func TestSummarizeCreditsFolds(t *testing.T) {
	store := newFakeLedgerStore()
	customer := &models.Customer{
		ID:                 primitive.NewObjectID(),
		Email:              "jo@example.com",
		CreditBalancePence: 750,
	}
	store.customersByID[customer.ID.Hex()] = customer
	store.entries = []models.LedgerEntry{
		{Kind: models.EntryKindCredit, RecipientType: models.ReferrerCustomer, RecipientID: customer.ID, AmountPence: 500, Status: models.EntryStatusPending},
		{Kind: models.EntryKindCredit, RecipientType: models.ReferrerCustomer, RecipientID: customer.ID, AmountPence: 250, Status: models.EntryStatusApproved},
		{Kind: models.EntryKindCredit, RecipientType: models.ReferrerCustomer, RecipientID: customer.ID, AmountPence: 100, Status: models.EntryStatusPaid},
		// Adjustments appear in the balance, never in the earned fold.
		{Kind: models.EntryKindAdjustment, RecipientType: models.ReferrerCustomer, RecipientID: customer.ID, AmountPence: 999, Status: models.EntryStatusApproved},
	}
	store.redemptions = []models.Order{{CreditUsedPence: 200}, {CreditUsedPence: 300}}

	svc := NewLedgerService(store, nil)
	report, err := svc.SummarizeCredits(context.Background(), customer.ID.Hex())
	if err != nil {
		t.Fatalf("SummarizeCredits returned error: %v", err)
	}

	s := report.Summary
	if s.TotalEarnedPence != 850 {
		t.Errorf("total earned = %d, want 850", s.TotalEarnedPence)
	}
	if s.PendingPence != 500 || s.ApprovedPence != 250 || s.PaidPence != 100 {
		t.Errorf("status fold = pending %d approved %d paid %d", s.PendingPence, s.ApprovedPence, s.PaidPence)
	}
	if s.RedeemedPence != 500 {
		t.Errorf("redeemed = %d, want 500", s.RedeemedPence)
	}
	if s.BalancePence != 750 {
		t.Errorf("balance = %d, want 750", s.BalancePence)
	}
	if s.TotalEarnedPounds != "8.50" || s.CurrentBalance != "7.50" {
		t.Errorf("pounds strings = %s / %s", s.TotalEarnedPounds, s.CurrentBalance)
	}
	if len(report.EarnedCredits) != 3 {
		t.Errorf("earned entries = %d, want 3", len(report.EarnedCredits))
	}
}

func TestSummarizeCreditsUnknownCustomer(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore(), nil)
	if _, err := svc.SummarizeCredits(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustCredit(t *testing.T) {
	store := newFakeLedgerStore()
	customer := &models.Customer{ID: primitive.NewObjectID(), Email: "jo@example.com"}
	store.customersByID[customer.ID.Hex()] = customer

	svc := NewLedgerService(store, nil)
	entry, err := svc.AdjustCredit(context.Background(), customer.ID.Hex(), -250, "goodwill reversal")
	if err != nil {
		t.Fatalf("AdjustCredit returned error: %v", err)
	}
	if entry.Kind != models.EntryKindAdjustment || entry.Status != models.EntryStatusApproved {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Reason != "goodwill reversal" {
		t.Errorf("reason = %q", entry.Reason)
	}
	if len(store.creditDeltas) != 1 || store.creditDeltas[0] != -250 {
		t.Errorf("deltas = %v", store.creditDeltas)
	}
}

func TestAdjustCreditRejectsOverdraft(t *testing.T) {
	store := newFakeLedgerStore()
	customer := &models.Customer{ID: primitive.NewObjectID()}
	store.customersByID[customer.ID.Hex()] = customer
	store.addCreditErr = ErrInsufficientBalance

	svc := NewLedgerService(store, nil)
	if _, err := svc.AdjustCredit(context.Background(), customer.ID.Hex(), -5000, "clawback"); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Errorf("audit entry written for rejected adjustment")
	}
}

func TestAdjustCreditCustomerDeletedMidFlight(t *testing.T) {
	store := newFakeLedgerStore()
	customer := &models.Customer{ID: primitive.NewObjectID()}
	store.customersByID[customer.ID.Hex()] = customer
	// The customer disappears between the find and the balance update.
	store.addCreditErr = ErrNoMatch

	svc := NewLedgerService(store, nil)
	if _, err := svc.AdjustCredit(context.Background(), customer.ID.Hex(), 100, "promo credit"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustCreditValidation(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore(), nil)
	if _, err := svc.AdjustCredit(context.Background(), "id", 0, "reason"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: got %v", err)
	}
	if _, err := svc.AdjustCredit(context.Background(), "id", 100, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty reason: got %v", err)
	}
}

func TestSummarizeCommissionsStatusFilter(t *testing.T) {
	store := newFakeLedgerStore()
	partnerID := primitive.NewObjectID()
	store.entries = []models.LedgerEntry{
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, AmountPence: 2000, Status: models.EntryStatusPending},
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, AmountPence: 500, Status: models.EntryStatusApproved},
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, AmountPence: 1500, Status: models.EntryStatusPaid},
	}

	svc := NewLedgerService(store, nil)

	report, err := svc.SummarizeCommissions(context.Background(), models.ReferrerPartner, partnerID.Hex(), "")
	if err != nil {
		t.Fatalf("SummarizeCommissions returned error: %v", err)
	}
	s := report.Summary
	if s.TotalEarnedPence != 4000 || s.PaidPence != 1500 || s.UnpaidPence != 2500 {
		t.Errorf("summary = total %d paid %d unpaid %d", s.TotalEarnedPence, s.PaidPence, s.UnpaidPence)
	}
	if s.PendingPence != 2000 || s.ApprovedPence != 500 {
		t.Errorf("unpaid split = pending %d approved %d", s.PendingPence, s.ApprovedPence)
	}
	if len(report.Entries) != 3 {
		t.Errorf("unfiltered entries = %d", len(report.Entries))
	}

	paid, err := svc.SummarizeCommissions(context.Background(), models.ReferrerPartner, partnerID.Hex(), "paid")
	if err != nil {
		t.Fatalf("paid filter error: %v", err)
	}
	if len(paid.Entries) != 1 || paid.Entries[0].AmountPence != 1500 {
		t.Errorf("paid entries = %+v", paid.Entries)
	}

	unpaid, err := svc.SummarizeCommissions(context.Background(), models.ReferrerPartner, partnerID.Hex(), "unpaid")
	if err != nil {
		t.Fatalf("unpaid filter error: %v", err)
	}
	if len(unpaid.Entries) != 2 {
		t.Errorf("unpaid entries = %d, want 2", len(unpaid.Entries))
	}

	if _, err := svc.SummarizeCommissions(context.Background(), models.ReferrerPartner, partnerID.Hex(), "bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bogus filter: got %v", err)
	}
}

func TestMarkPaid(t *testing.T) {
	store := newFakeLedgerStore()
	partnerID := primitive.NewObjectID()
	orderA := primitive.NewObjectID()
	orderB := primitive.NewObjectID()
	store.entries = []models.LedgerEntry{
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, OrderID: orderA, AmountPence: 2000, Status: models.EntryStatusPending},
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, OrderID: orderB, AmountPence: 500, Status: models.EntryStatusApproved},
	}

	svc := NewLedgerService(store, nil)
	updated, err := svc.MarkPaid(context.Background(), partnerID.Hex(), []string{orderA.Hex(), orderB.Hex()})
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	for _, e := range store.entries {
		if e.Status != models.EntryStatusPaid || e.PaidAt == nil {
			t.Errorf("entry not transitioned: %+v", e)
		}
	}
}

func TestMarkPaidRejectsForeignEntries(t *testing.T) {
	store := newFakeLedgerStore()
	owner := primitive.NewObjectID()
	caller := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	store.entries = []models.LedgerEntry{
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: owner, OrderID: orderID, AmountPence: 2000, Status: models.EntryStatusPending},
	}

	svc := NewLedgerService(store, nil)
	if _, err := svc.MarkPaid(context.Background(), caller.Hex(), []string{orderID.Hex()}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if store.entries[0].Status != models.EntryStatusPending {
		t.Errorf("foreign entry was modified")
	}
}

func TestMarkPaidDeduplicatesOrderIDs(t *testing.T) {
	store := newFakeLedgerStore()
	partnerID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	store.entries = []models.LedgerEntry{
		{Kind: models.EntryKindCommission, RecipientType: models.ReferrerPartner, RecipientID: partnerID, OrderID: orderID, AmountPence: 2000, Status: models.EntryStatusPending},
	}

	svc := NewLedgerService(store, nil)
	updated, err := svc.MarkPaid(context.Background(), partnerID.Hex(), []string{orderID.Hex(), orderID.Hex()})
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if store.entries[0].Status != models.EntryStatusPaid {
		t.Errorf("entry not transitioned: %+v", store.entries[0])
	}
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore(), nil)
	partnerID := primitive.NewObjectID()
	if _, err := svc.MarkPaid(context.Background(), partnerID.Hex(), []string{primitive.NewObjectID().Hex()}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkPaidValidation(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore(), nil)
	if _, err := svc.MarkPaid(context.Background(), "not-hex", []string{primitive.NewObjectID().Hex()}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad partner id: got %v", err)
	}
	if _, err := svc.MarkPaid(context.Background(), primitive.NewObjectID().Hex(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty order ids: got %v", err)
	}
	if _, err := svc.MarkPaid(context.Background(), primitive.NewObjectID().Hex(), []string{"not-hex"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad order id: got %v", err)
	}
}
