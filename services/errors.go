package services

import "errors"

// Sentinel errors for the resolver and ledger calculator. Controllers map
// these to HTTP status codes; "no match" and "lookup failed" are distinct so a
// datastore outage is never reported as an invalid code.
var (
	// ErrInvalidInput rejects malformed or missing input before any lookup.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoMatch is returned by an individual code source when the code does
	// not exist there. The resolver continues to the next source.
	ErrNoMatch = errors.New("no match")

	// ErrNotFound means no candidate source matched the code.
	ErrNotFound = errors.New("referral code not found")

	// ErrExpired means a source matched but the code is past its expiry.
	// Expiry is terminal: the resolver never falls through to a
	// lower-priority source for an expired match.
	ErrExpired = errors.New("referral code expired")

	// ErrAlreadyAttributed acknowledges a no-op attribution write. The
	// customer keeps their first attribution; this is not a failure.
	ErrAlreadyAttributed = errors.New("customer already attributed")

	// ErrConflict means a ledger entry already exists for the order, e.g. a
	// webhook retry. The original entry stands.
	ErrConflict = errors.New("ledger entry already recorded for order")

	// ErrRecipientNotFound means the attribution points at a partner,
	// customer or influencer that no longer exists or is inactive.
	ErrRecipientNotFound = errors.New("commission recipient not found")

	// ErrInvalidOrder rejects zero or negative order amounts.
	ErrInvalidOrder = errors.New("order amount must be positive")

	// ErrInsufficientBalance rejects credit adjustments that would drive a
	// customer's balance below zero.
	ErrInsufficientBalance = errors.New("insufficient credit balance")

	// ErrForbidden means the caller does not own the entries they are trying
	// to modify.
	ErrForbidden = errors.New("entries do not belong to caller")

	// ErrQuotaExceeded means the caller used up their generation quota.
	ErrQuotaExceeded = errors.New("generation quota exceeded")

	// ErrUpstreamUnavailable wraps datastore or external-service failures,
	// including timeouts.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
