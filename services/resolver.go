package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
	"github.com/pawtraits-dev/pawtraits-sub013/utils"
)

// CodeSource is one candidate lookup in the resolution chain. TryResolve
// returns ErrNoMatch when the code does not exist in this source; any other
// error means the lookup itself failed and resolution must abort.
type CodeSource interface {
	Kind() models.ReferralKind
	TryResolve(ctx context.Context, code string) (*models.ReferralCandidate, error)
}

// AttributionStore persists attributions and scan counters.
type AttributionStore interface {
	// ApplyAttribution writes the attribution onto the customer record only
	// if no attribution exists yet (first-write-wins, enforced with a
	// conditional update at the storage layer). Returns ErrAlreadyAttributed
	// when one is already set and ErrNoMatch when the customer is unknown.
	ApplyAttribution(ctx context.Context, customerID string, att models.Attribution) error

	// RecordScan atomically increments the scan counter on the matched code.
	RecordScan(ctx context.Context, kind models.ReferralKind, code string) error
}

// Resolver resolves referral codes across the ordered candidate sources,
// first match wins. The source order encodes business precedence and is fixed
// at construction.
type Resolver struct {
	sources []CodeSource
	store   AttributionStore
	timeout time.Duration
	now     func() time.Time
}

// NewResolver builds a resolver over the given sources, probed in the order
// supplied.
func NewResolver(store AttributionStore, sources ...CodeSource) *Resolver {
	return &Resolver{
		sources: sources,
		store:   store,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// Resolve normalizes the code and probes each source in priority order. An
// expired match is terminal: the resolver reports ErrExpired rather than
// falling through to a lower-priority source.
func (r *Resolver) Resolve(ctx context.Context, rawCode string) (*models.ReferralCandidate, error) {
	code, err := utils.ValidateCode(rawCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, source := range r.sources {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		candidate, err := source.TryResolve(sctx, code)
		cancel()

		if errors.Is(err, ErrNoMatch) {
			continue
		}
		if err != nil {
			// A failed lookup is not "no match". Abort the whole
			// resolution instead of silently probing the next source.
			return nil, fmt.Errorf("%w: %s lookup: %v", ErrUpstreamUnavailable, source.Kind(), err)
		}

		if r.isExpired(candidate) {
			return nil, ErrExpired
		}
		return candidate, nil
	}

	return nil, ErrNotFound
}

// Verify resolves a code and records the scan on the matched source. Scan
// recording is best-effort and never fails the verification.
func (r *Resolver) Verify(ctx context.Context, rawCode string) (*models.ReferralCandidate, error) {
	candidate, err := r.Resolve(ctx, rawCode)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.RecordScan(sctx, candidate.Kind, candidate.Code); err != nil {
		log.Printf("WARNING: failed to record scan for %s: %v", candidate.Code, err)
	}

	return candidate, nil
}

// Apply resolves a code and writes the attribution onto the customer record.
// The commission and discount rates are snapshotted at this moment. A customer
// who already has an attribution keeps it; the call still returns the
// resolution result for display, with applied=false.
func (r *Resolver) Apply(ctx context.Context, rawCode, customerID string) (*models.ReferralCandidate, bool, error) {
	candidate, err := r.Resolve(ctx, rawCode)
	if err != nil {
		return nil, false, err
	}

	attribution := models.Attribution{
		ReferrerType:   candidate.Referrer.Type,
		ReferrerID:     candidate.Referrer.ID,
		CodeUsed:       candidate.Code,
		Kind:           candidate.Kind,
		CommissionRate: candidate.CommissionRate,
		DiscountRate:   candidate.DiscountRate,
		AppliedAt:      r.now(),
	}

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err = r.store.ApplyAttribution(sctx, customerID, attribution)
	switch {
	case err == nil:
		return candidate, true, nil
	case errors.Is(err, ErrAlreadyAttributed):
		return candidate, false, nil
	case errors.Is(err, ErrNoMatch):
		return nil, false, fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	default:
		return nil, false, fmt.Errorf("%w: apply attribution: %v", ErrUpstreamUnavailable, err)
	}
}

func (r *Resolver) isExpired(candidate *models.ReferralCandidate) bool {
	if candidate.ExpiresAt == nil {
		return false
	}
	// Inclusive boundary: a code expiring exactly now is already expired.
	return !r.now().Before(*candidate.ExpiresAt)
}
